// Package output renders command results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Printer writes command output in one format.
type Printer struct {
	out    io.Writer
	format Format

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	bold   *color.Color
}

// NewPrinter creates a Printer. Color is applied only when useColor is set
// and the process is not running with NO_COLOR.
func NewPrinter(out io.Writer, format Format, useColor bool) *Printer {
	p := &Printer{
		out:    out,
		format: format,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		bold:   color.New(color.Bold),
	}
	if !useColor || color.NoColor {
		for _, c := range []*color.Color{p.green, p.red, p.yellow, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

// DefaultPrinter writes tables to stdout.
func DefaultPrinter() *Printer {
	return NewPrinter(os.Stdout, FormatTable, true)
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Writer returns the printer's output writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Print outputs data in the configured format. Table output needs a
// TableRenderer and falls back to JSON otherwise.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Println prints a message followed by a newline.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Printf prints a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Heading prints a bold section title preceded by a blank line.
func (p *Printer) Heading(title string) {
	_, _ = fmt.Fprintln(p.out)
	_, _ = p.bold.Fprintln(p.out, title)
}

// Success prints a success message.
func (p *Printer) Success(msg string) {
	_, _ = p.green.Fprintln(p.out, msg)
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	_, _ = p.red.Fprintln(p.out, msg)
}

// Warning prints a warning message.
func (p *Printer) Warning(msg string) {
	_, _ = p.yellow.Fprintln(p.out, msg)
}
