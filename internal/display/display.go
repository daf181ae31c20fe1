// Package display renders command results for the operator: tables, coloured
// status lines and progress bars. Colour and bars are only used on terminals.
package display

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"fjacquet/invoice-reconciler/internal/models"
	"fjacquet/invoice-reconciler/internal/pdftools"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Printer writes to one output stream.
type Printer struct {
	out         io.Writer
	interactive bool

	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
}

// NewPrinter creates a Printer for f, enabling colour when f is a terminal.
func NewPrinter(f *os.File) *Printer {
	return NewPrinterTo(f, IsTerminal(f))
}

// NewPrinterTo creates a Printer for any writer.
func NewPrinterTo(out io.Writer, interactive bool) *Printer {
	p := &Printer{
		out:         out,
		interactive: interactive,
		success:     color.New(color.FgGreen),
		fail:        color.New(color.FgRed),
		warn:        color.New(color.FgYellow),
		label:       color.New(color.FgCyan, color.Bold),
	}
	if !interactive {
		for _, c := range []*color.Color{p.success, p.fail, p.warn, p.label} {
			c.DisableColor()
		}
	}
	return p
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Interactive reports whether the printer targets a terminal.
func (p *Printer) Interactive() bool { return p.interactive }

func (p *Printer) Successf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.success.Sprint("✔ ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Failf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.fail.Sprint("✘ ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.warn.Sprint("! ")+fmt.Sprintf(format, args...))
}

// Titlef prints a section heading.
func (p *Printer) Titlef(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.label.Sprintf(format, args...))
}

// Table prints a rounded table. Rows shorter than headers are padded.
func (p *Printer) Table(headers []string, rows [][]string, aligns ...Alignment) {
	if out := RenderTable(headers, rows, aligns); out != "" {
		fmt.Fprintln(p.out, out)
	}
}

// RenderTable renders headers and rows as a rounded table.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// List prints a titled, counted list of paths or names.
func (p *Printer) List(title string, items []string) {
	if len(items) == 0 {
		p.Successf("%s: none", title)
		return
	}
	p.Warnf("%s: %d", title, len(items))
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{strconv.Itoa(i + 1), it}
	}
	p.Table([]string{"#", title}, rows, AlignRight, AlignLeft)
}

// OperationSummary prints the counts of a bulk move and its error messages.
func (p *Printer) OperationSummary(title string, s models.OperationSummary) {
	p.Titlef("%s", title)
	p.Table([]string{"Result", "Count"}, [][]string{
		{"Moved", strconv.Itoa(s.Moved)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Not found", strconv.Itoa(s.NotFound)},
		{"Total", strconv.Itoa(s.Total())},
	}, AlignLeft, AlignRight)
	for _, e := range s.Errors {
		p.Failf("%s", e)
	}
	if s.Failed == 0 && s.NotFound == 0 {
		p.Successf("all %d items accounted for", s.Moved)
	}
}

// ToolSummary prints the outcome of an OCR or compression batch.
func (p *Printer) ToolSummary(title string, s models.ToolSummary) {
	rows := [][]string{
		{"Succeeded", strconv.Itoa(s.OK)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
	if s.BytesSaved != 0 {
		rows = append(rows, []string{"Saved", pdftools.FormatSaved(s.BytesSaved)})
	}
	p.Titlef("%s", title)
	p.Table([]string{"Result", "Count"}, rows, AlignLeft, AlignRight)
	for _, f := range s.Failures {
		p.Failf("%s", f)
	}
}

// Tally prints normalization counts by status.
func (p *Printer) Tally(t models.NormalizationTally) {
	statuses := make([]string, 0, len(t))
	for s := range t {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	rows := make([][]string, len(statuses))
	for i, s := range statuses {
		rows[i] = []string{s, strconv.Itoa(t[models.NormalizationStatus(s)])}
	}
	p.Table([]string{"Status", "Files"}, rows, AlignLeft, AlignRight)
}
