package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shintakezou/xrefgraph/internal/config"
	"github.com/shintakezou/xrefgraph/internal/core"
	"github.com/shintakezou/xrefgraph/internal/dot"
	"github.com/shintakezou/xrefgraph/internal/xref"
)

// ProgressReporter reports progress during a pipeline run.
type ProgressReporter interface {
	OnDiscoveryComplete(totalFiles int)
	OnUnitProcessed(processedFiles, totalFiles int, fileName string)
	OnRunComplete(units int, output string)
}

// Report summarizes one completed run.
type Report struct {
	Files   int           // source files discovered
	Units   int           // units that contributed to the graph
	Results []xref.Result // per-unit extraction results, discovery order
	Output  string        // graph description file path
}

// Pipeline wires the collaborators of one batch run. Each run is
// independent; failures never cross the per-unit boundary.
type Pipeline struct {
	rootDir  string
	cfg      *config.Config
	compiler *Compiler
	ignore   xref.IgnoreSet
	progress ProgressReporter
	noRender bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// WithoutRender skips the external image-rendering step.
func WithoutRender() Option {
	return func(p *Pipeline) {
		p.noRender = true
	}
}

// New creates a pipeline for the given analysis root.
func New(rootDir string, cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		rootDir:  rootDir,
		cfg:      cfg,
		compiler: NewCompiler(cfg.Compiler.Command),
		ignore:   xref.DefaultIgnore,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full batch: discover, compile, parse, extract, render,
// write the graph description and hand it to the layout tool. A run always
// produces a graph description; units whose compile or parse step failed
// are logged and contribute nothing.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	discovery, err := NewFileDiscovery(p.rootDir, p.cfg.Paths.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore patterns: %w", err)
	}
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discovering source files: %w", err)
	}
	if p.progress != nil {
		p.progress.OnDiscoveryComplete(len(files))
	}

	var results []xref.Result
	for i, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if res, ok := p.processUnit(ctx, file); ok {
			results = append(results, res)
		}
		if p.progress != nil {
			p.progress.OnUnitProcessed(i+1, len(files), filepath.Base(file))
		}
	}

	renderer := dot.NewRenderer(p.cfg.Render.GraphName, p.ignore)
	text := renderer.Render(results)

	output := p.cfg.Render.Output
	if !filepath.IsAbs(output) {
		output = filepath.Join(p.rootDir, output)
	}
	if err := os.WriteFile(output, []byte(text), 0644); err != nil {
		return nil, fmt.Errorf("writing graph description: %w", err)
	}

	if !p.noRender {
		// fire and forget: the layout tool's exit status is not part
		// of the contract
		_ = exec.CommandContext(ctx, p.cfg.Render.Dot, "-Tpng", "-O", output).Run()
	}

	report := &Report{
		Files:   len(files),
		Units:   len(results),
		Results: results,
		Output:  output,
	}
	if p.progress != nil {
		p.progress.OnRunComplete(report.Units, report.Output)
	}
	return report, nil
}

// processUnit takes one source file through compile, parse and extract.
// Either failure is logged and the unit contributes nothing; the
// intermediate file is deleted after being read regardless of parse
// outcome.
func (p *Pipeline) processUnit(ctx context.Context, file string) (xref.Result, bool) {
	treeFile, err := p.compiler.Compile(ctx, file)
	if err != nil {
		log.Printf("Warning: %v", err)
		return xref.Result{}, false
	}

	src, err := os.ReadFile(treeFile)
	if removeErr := os.Remove(treeFile); removeErr != nil {
		log.Printf("Warning: failed to remove %s: %v", treeFile, removeErr)
	}
	if err != nil {
		log.Printf("Warning: failed to read %s: %v", treeFile, err)
		return xref.Result{}, false
	}

	mod, err := core.ParseModule(src)
	if err != nil {
		log.Printf("Warning: failed to parse %s: %v", treeFile, err)
		return xref.Result{}, false
	}
	return xref.Extract(mod), true
}
