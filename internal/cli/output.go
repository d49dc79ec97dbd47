package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printer writes terminal output, coloured unless NO_COLOR is set or the
// writer is not the real stdout.
type printer struct {
	out       io.Writer
	useColors bool
}

func newPrinter(out io.Writer) *printer {
	_, noColor := os.LookupEnv("NO_COLOR")
	return &printer{out: out, useColors: out == os.Stdout && !noColor && !color.NoColor}
}

func (p *printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Info(format string, args ...any) {
	p.colored(color.FgCyan, "", format, args...)
}

func (p *printer) Success(format string, args ...any) {
	p.colored(color.FgGreen, "[OK] ", format, args...)
}

func (p *printer) Warning(format string, args ...any) {
	p.colored(color.FgYellow, "[WARN] ", format, args...)
}

func (p *printer) Header(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", title)
}

func (p *printer) colored(attr color.Attribute, plainPrefix, format string, args ...any) {
	if p.useColors {
		color.New(attr).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, plainPrefix+format+"\n", args...)
}

// renderTable prints rows under headers without borders.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)

	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
