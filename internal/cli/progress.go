package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter implements pipeline progress reporting with a
// progress bar.
type CLIProgressReporter struct {
	quiet     bool
	bar       *progressbar.ProgressBar
	startTime time.Time
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(totalFiles int) {
	if c.quiet {
		return
	}
	log.Printf("Processing %d source files\n", totalFiles)
	if totalFiles == 0 {
		return
	}
	c.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Analyzing units"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)
}

func (c *CLIProgressReporter) OnUnitProcessed(processedFiles, totalFiles int, fileName string) {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Describe(fmt.Sprintf("Analyzing %s", fileName))
	c.bar.Add(1)
}

func (c *CLIProgressReporter) OnRunComplete(units int, output string) {
	if c.quiet {
		return
	}
	log.Printf("Wrote %s (%d units, %.1fs)\n", output, units, time.Since(c.startTime).Seconds())
}
