package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode represents color output mode
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

// palette holds the accent colors for a theme.
type palette struct {
	accent  *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	dim     *color.Color
}

func paletteFor(theme string) palette {
	if theme == "dark" {
		return palette{
			accent:  color.New(color.FgHiCyan, color.Bold),
			success: color.New(color.FgHiGreen),
			warn:    color.New(color.FgHiYellow),
			fail:    color.New(color.FgHiRed),
			dim:     color.New(color.FgHiBlack),
		}
	}
	return palette{
		accent:  color.New(color.FgBlue, color.Bold),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
}

// Printer handles formatted output to the terminal
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	colors    palette
}

// NewPrinter creates a printer. theme is "dark" or "light".
func NewPrinter(out, errOut io.Writer, useColors bool, theme string) *Printer {
	p := &Printer{
		out:       out,
		err:       errOut,
		useColors: useColors,
		colors:    paletteFor(theme),
	}
	if useColors {
		for _, c := range []*color.Color{p.colors.accent, p.colors.success, p.colors.warn, p.colors.fail, p.colors.dim} {
			c.EnableColor()
		}
	}
	return p
}

// Out returns the standard output writer.
func (p *Printer) Out() io.Writer { return p.out }

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		p.colors.success.Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		p.colors.warn.Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		p.colors.fail.Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Header prints a section header
func (p *Printer) Header(title string) {
	line := strings.Repeat("-", len(title))
	if p.useColors {
		p.colors.accent.Fprintf(p.out, "\n%s\n", title)
		p.colors.dim.Fprintf(p.out, "%s\n", strings.Repeat("─", len(title)))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, line)
}

// Dim returns dimmed text
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return p.colors.dim.Sprint(text)
	}
	return text
}

// StatusBadge renders a user status.
func (p *Printer) StatusBadge(status string) string {
	if !p.useColors {
		return status
	}
	switch status {
	case "active":
		return p.colors.success.Sprint(status)
	case "suspended", "deactivated":
		return p.colors.fail.Sprint(status)
	default:
		return p.colors.warn.Sprint(status)
	}
}
