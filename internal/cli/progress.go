package cli

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/coffee-symbols/internal/indexer"
)

// CLIProgressReporter implements indexer.ProgressReporter with a progress bar.
type CLIProgressReporter struct {
	quiet   bool
	w       io.Writer
	mu      sync.Mutex
	fileBar *progressbar.ProgressBar
	failed  int
}

// NewCLIProgressReporter creates a reporter writing to w.
func NewCLIProgressReporter(w io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, w: w}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	log.Printf("Found %s source files", formatNumber(files))
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = 0
	if c.quiet || totalFiles == 0 {
		return
	}

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription("Indexing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.w)
		}),
	)
}

// OnFileProcessed is called concurrently from index workers.
func (c *CLIProgressReporter) OnFileProcessed(uri string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed++
	}
	if c.fileBar != nil {
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(result *indexer.Result) {
	c.mu.Lock()
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
	c.mu.Unlock()

	if c.quiet {
		return
	}
	fmt.Fprintf(c.w, "✓ Indexing complete in %.1fs\n", result.Duration.Seconds())
	fmt.Fprintf(c.w, "  Indexed:   %s\n", formatNumber(result.Indexed))
	fmt.Fprintf(c.w, "  Unchanged: %s\n", formatNumber(result.Unchanged))
	if len(result.Failures) > 0 {
		fmt.Fprintf(c.w, "  Failed:    %s\n", formatNumber(len(result.Failures)))
	}
}

// Failed returns the number of failed files in the current run.
func (c *CLIProgressReporter) Failed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
