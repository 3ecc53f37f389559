package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shintakezou/xrefgraph/internal/config"
	"github.com/shintakezou/xrefgraph/internal/depgraph"
	"github.com/shintakezou/xrefgraph/internal/pipeline"
	"github.com/shintakezou/xrefgraph/internal/xref"
)

var (
	outputFlag   string
	quietFlag    bool
	watchFlag    bool
	cyclesFlag   bool
	noRenderFlag bool
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Generate the cross-module dependency graph",
	Long: `Graph discovers source files under a directory, compiles each to its
intermediate tree form, extracts every cross-module call and writes a
directed-graph description, then hands it to the layout tool for an image.

Units whose compile or parse step fails are reported and skipped; the run
always produces a graph description.

Examples:
  # Analyze the current directory
  xrefgraph graph

  # Analyze a project, write the description elsewhere
  xrefgraph graph ~/src/myapp --output /tmp/myapp.dot

  # Report dependency cycles among analyzed modules
  xrefgraph graph --cycles

  # Regenerate on every source change
  xrefgraph graph --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "graph description output path (overrides config)")
	graphCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	graphCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and regenerate")
	graphCmd.Flags().BoolVar(&cyclesFlag, "cycles", false, "Report dependency cycles among analyzed modules")
	graphCmd.Flags().BoolVar(&noRenderFlag, "no-render", false, "Skip the external image rendering step")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling...")
		cancel()
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if len(args) == 1 {
		rootDir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
	}

	cfg, err := config.NewLoader(rootDir).Load()
	if err != nil {
		return err
	}
	if outputFlag != "" {
		cfg.Render.Output = outputFlag
	}

	opts := []pipeline.Option{
		pipeline.WithProgress(NewCLIProgressReporter(quietFlag)),
	}
	if noRenderFlag {
		opts = append(opts, pipeline.WithoutRender())
	}
	p := pipeline.New(rootDir, cfg, opts...)

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if cyclesFlag {
		if err := printCycles(report.Results); err != nil {
			return err
		}
	}

	if watchFlag {
		watcher, err := pipeline.NewWatcher(p)
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		watcher.Start(ctx)
		defer watcher.Stop()
		if !quietFlag {
			fmt.Println("Watching for changes. Press Ctrl+C to stop.")
		}
		<-ctx.Done()
	}
	return nil
}

func printCycles(results []xref.Result) error {
	g, err := depgraph.Build(results, xref.DefaultIgnore)
	if err != nil {
		return err
	}
	cycles, err := g.Cycles()
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		fmt.Println("No dependency cycles.")
		return nil
	}
	fmt.Printf("%d dependency cycle(s):\n", len(cycles))
	for _, cycle := range cycles {
		fmt.Printf("  %s\n", strings.Join(cycle, " <-> "))
	}
	return nil
}
