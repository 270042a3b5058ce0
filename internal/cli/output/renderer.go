// Package output renders command results in one of several modes: styled
// text for terminals, markdown for piped output, and JSON for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Mode selects the rendering style.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeJUnit    Mode = "junit"
)

// Styles holds the lipgloss styles shared by all commands.
type Styles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles Styles
}

// NewRenderer builds a renderer. Mode empty or "auto" resolves to text on a
// terminal and markdown otherwise.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: defaultStyles()}
}

// EffectiveMode resolves auto to a concrete mode.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return ModeText
		}
	}
	return ModeMarkdown
}

// Styles returns the shared style set.
func (r *Renderer) Styles() Styles { return r.styles }

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success prints a confirmation line.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.out, r.styles.Success.Render("✓ ")+msg)
		return
	}
	fmt.Fprintln(r.out, msg)
}

// Failure prints an error-styled line to the error stream.
func (r *Renderer) Failure(msg string) {
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ ")+msg)
		return
	}
	fmt.Fprintln(r.errOut, msg)
}

// Println writes a plain line.
func (r *Renderer) Println(args ...any) { fmt.Fprintln(r.out, args...) }

// Printf writes formatted output.
func (r *Renderer) Printf(format string, args ...any) { fmt.Fprintf(r.out, format, args...) }

// Out exposes the underlying writer for renderers that stream their own
// formats (tables, reports).
func (r *Renderer) Out() io.Writer { return r.out }
