package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guumaster/logsymbols"
	"github.com/mattn/go-runewidth"

	"orgctl/internal/tui/design"
)

// printer writes user-facing output. Logs go through pkg/logging instead.
type printer struct {
	out io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{out: w}
}

func (p *printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, design.TextSuccessStyle.Render(string(logsymbols.Success)+" "+fmt.Sprintf(format, args...)))
}

func (p *printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.out, design.TextErrorStyle.Render(string(logsymbols.Error)+" "+fmt.Sprintf(format, args...)))
}

func (p *printer) Notificationf(format string, args ...any) {
	fmt.Fprintln(p.out, design.TextWarningStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Headerln(msg string) {
	fmt.Fprintln(p.out, design.HeaderStyle.Render(msg))
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// column is one table column. style may be nil.
type column struct {
	header string
	style  func(cell string) lipgloss.Style
}

// Table prints rows aligned on display width, so labels with wide or
// accented characters line up.
func (p *printer) Table(cols []column, rows [][]string) {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var header []string
	for i, c := range cols {
		header = append(header, runewidth.FillRight(c.header, widths[i]))
	}
	p.Headerln(strings.TrimRight(strings.Join(header, "  "), " "))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			padded := runewidth.FillRight(cell, widths[i])
			if i == len(row)-1 {
				padded = cell
			}
			if cols[i].style != nil {
				padded = cols[i].style(cell).Render(padded)
			}
			cells[i] = padded
		}
		fmt.Fprintln(p.out, strings.Join(cells, "  "))
	}
}
