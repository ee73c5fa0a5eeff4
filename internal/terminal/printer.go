package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/mainbong/storage_fixtures/internal/generator"
	"github.com/mainbong/storage_fixtures/internal/verify"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	totalStyle  = lipgloss.NewStyle().Bold(true)
)

// Printer writes human-readable run progress. It implements generator.Reporter.
type Printer struct {
	writer     io.Writer
	groupLines bool
	verbose    bool
	summary    bool
}

// NewPrinter creates a printer that writes to the provided writer.
func NewPrinter(writer io.Writer) *Printer {
	return &Printer{writer: writer, groupLines: true}
}

// SetGroupLines toggles the per-directory progress lines.
func (p *Printer) SetGroupLines(enabled bool) {
	p.groupLines = enabled
}

// SetVerbose enables one line per written file.
func (p *Printer) SetVerbose(verbose bool) {
	p.verbose = verbose
}

// SetSummary enables the per-group table after the completion line.
func (p *Printer) SetSummary(summary bool) {
	p.summary = summary
}

func (p *Printer) GroupStarted(dir string, count int) {
	if !p.groupLines {
		return
	}
	fmt.Fprintf(p.writer, "%s Generating %d files in %s\n",
		color.CyanString("→"), count, dir)
}

func (p *Printer) FileWritten(file generator.FileRecord) {
	if !p.verbose {
		return
	}
	kind := color.GreenString(string(file.Kind))
	if file.Kind == generator.KindBinary {
		kind = color.MagentaString(string(file.Kind))
	}
	fmt.Fprintf(p.writer, "    %s (%s, %d bytes)\n", file.Name, kind, file.Size)
}

func (p *Printer) Completed(report *generator.Report) {
	fmt.Fprintf(p.writer, "%s\n", color.GreenString("✔ Generation complete."))
	if p.summary {
		fmt.Fprintln(p.writer, RenderSummary(report))
	}
}

// RenderSummary renders a per-group table of file counts and sizes.
func RenderSummary(report *generator.Report) string {
	rows := [][]string{{"GROUP", "FILES", "TEXT", "BINARY", "BYTES"}}
	for _, g := range report.Groups {
		text, binary, size := 0, 0, 0
		for _, f := range g.Files {
			if f.Kind == generator.KindText {
				text++
			} else {
				binary++
			}
			size += f.Size
		}
		rows = append(rows, []string{
			g.Group,
			fmt.Sprint(len(g.Files)),
			fmt.Sprint(text),
			fmt.Sprint(binary),
			fmt.Sprint(size),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellStyle.Copy().Width(widths[j] + 2).Render(cell)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if i == 0 {
			line = headerStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, totalStyle.Render(fmt.Sprintf("%d files, %d bytes, seed %d",
		report.TotalFiles(), report.TotalBytes(), report.Seed)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// PrintIssues writes verification results and returns the number of issues.
func PrintIssues(w io.Writer, result *verify.Result) int {
	for _, g := range result.Groups {
		status := color.GreenString("ok")
		if len(g.Issues) > 0 {
			status = color.RedString("%d issue(s)", len(g.Issues))
		}
		fmt.Fprintf(w, "%s %s: %d files, %s\n", color.CyanString("→"), g.Dir, g.Files, status)
		for _, issue := range g.Issues {
			fmt.Fprintf(w, "    %s %s\n", color.YellowString("•"), issue)
		}
	}

	total := result.IssueCount()
	if total == 0 {
		fmt.Fprintln(w, color.GreenString("✔ All groups verified."))
	} else {
		fmt.Fprintln(w, color.RedString("✗ %d issue(s) found.", total))
	}
	return total
}

// FormatEvent formats a watch event for display.
func FormatEvent(op, path string) string {
	var c func(format string, a ...interface{}) string
	switch strings.ToLower(op) {
	case "create":
		c = color.GreenString
	case "remove", "rename":
		c = color.RedString
	default:
		c = color.YellowString
	}
	return fmt.Sprintf("%s %s", c("%-6s", strings.ToUpper(op)), path)
}
