package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"pagesmith/internal/pipeline"
)

// progressReporter draws a bar on interactive terminals. On anything else it
// stays silent and the batch progress log lines carry the information.
type progressReporter struct {
	bar *progressbar.ProgressBar
}

func newProgressReporter(w io.Writer, total int) *progressReporter {
	if !isTerminal(w) || total == 0 {
		return &progressReporter{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progressReporter{bar: bar}
}

func (p *progressReporter) update(progress pipeline.Progress) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(string(progress.Outcome))
	_ = p.bar.Set(progress.Done)
}

func (p *progressReporter) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
