package terminal

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/mainbong/storage_fixtures/internal/generator"
	"github.com/mainbong/storage_fixtures/internal/logger"
)

// Progress shows a progress bar over written files. It implements
// generator.Reporter. The bar's maximum grows as each group announces its
// file count.
type Progress struct {
	bar   *progressbar.ProgressBar
	total int
	done  int
}

// NewProgress creates a progress bar writing to w
func NewProgress(w io.Writer) *Progress {
	bar := progressbar.NewOptions(1,
		progressbar.OptionSetDescription(color.CyanString("Generating fixtures")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)

	return &Progress{bar: bar}
}

func (p *Progress) GroupStarted(dir string, count int) {
	p.total += count
	if p.total > 0 {
		p.bar.ChangeMax(p.total)
	}
	p.bar.Describe(color.CyanString("Generating ") + dir)
}

func (p *Progress) FileWritten(file generator.FileRecord) {
	p.done++
	if err := p.bar.Set(p.done); err != nil {
		logger.Debug("Progress bar update failed: %v", err)
	}
}

func (p *Progress) Completed(report *generator.Report) {
	p.bar.Describe(color.GreenString("Generated %d files", report.TotalFiles()))
	if err := p.bar.Finish(); err != nil {
		logger.Debug("Progress bar finish failed: %v", err)
	}
}

// Done returns the number of files the bar has counted
func (p *Progress) Done() int {
	return p.done
}

// MultiReporter fans callbacks out to several reporters in order
type MultiReporter []generator.Reporter

func (m MultiReporter) GroupStarted(dir string, count int) {
	for _, r := range m {
		r.GroupStarted(dir, count)
	}
}

func (m MultiReporter) FileWritten(file generator.FileRecord) {
	for _, r := range m {
		r.FileWritten(file)
	}
}

func (m MultiReporter) Completed(report *generator.Report) {
	for _, r := range m {
		r.Completed(report)
	}
}
