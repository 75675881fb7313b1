// Package output renders CLI results: styled text on a terminal,
// plain text when piped, JSON on request.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles holds the lipgloss styles shared by commands.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles builds the default style set.
func NewStyles() *Styles {
	return &Styles{
		Header:  lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer writes command output in the effective mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a Renderer. ModeAuto picks styled text on a
// terminal and plain text otherwise.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: NewStyles()}
}

// Writer returns the renderer's output stream.
func (r *Renderer) Writer() io.Writer { return r.out }

// Styles returns the style set, disabled when not on a terminal.
func (r *Renderer) Styles() *Styles {
	if r.styled() {
		return r.styles
	}
	plain := lipgloss.NewStyle()
	return &Styles{Header: plain, Success: plain, Warning: plain, Error: plain, Muted: plain}
}

// EffectiveMode resolves ModeAuto against the output stream.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	return ModeText
}

func (r *Renderer) styled() bool {
	f, ok := r.out.(*os.File)
	if !ok {
		return false
	}
	o := termenv.NewOutput(f)
	return !o.EnvNoColor() && o.ColorProfile() != termenv.Ascii
}

// Println writes a line to the output stream.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Printf writes formatted text to the output stream.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a styled heading.
func (r *Renderer) Header(text string) {
	r.Println(r.Styles().Header.Render(text))
}

// Success writes a styled success line.
func (r *Renderer) Success(text string) {
	r.Println(r.Styles().Success.Render(text))
}

// Warning writes a styled warning line to stderr.
func (r *Renderer) Warning(text string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles().Warning.Render(text))
}

// Errorln writes a styled error line to stderr.
func (r *Renderer) Errorln(text string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles().Error.Render(text))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
