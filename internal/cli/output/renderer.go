// Package output renders command results for terminals, pipes and machines.
//
// Output adapts to the environment: styled text on a terminal, markdown when
// piped, and JSON or YAML when asked for explicitly.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects how a Renderer formats results.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Modes lists every accepted mode, for flag completion.
var Modes = []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON), string(ModeYAML)}

// Renderer writes results to out and messages to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(out, isTTY),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// Mode returns the configured mode, possibly ModeAuto.
func (r *Renderer) Mode() Mode { return r.mode }

// EffectiveMode resolves ModeAuto: text on a terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the renderer's styles. They render plain text off a terminal.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the result stream.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the message stream.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Println writes a line to the result stream.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to the result stream.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Success writes a success message to the result stream.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Success.Render("✓ " + msg))
		return
	}
	r.Println(msg)
}

// Error writes an error message to the message stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("error: ")+msg)
}

// Warning writes a warning to the message stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: ")+msg)
}

// Header writes a section header in the current mode.
func (r *Renderer) Header(level int, text string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		r.Println(FormatHeader(level, text))
	case ModeText:
		style := r.styles.Header1
		if level > 1 {
			style = r.styles.Header2
		}
		r.Println(style.Render(text))
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Structured writes v as JSON or YAML and reports whether the mode was one of those.
func (r *Renderer) Structured(v any) (bool, error) {
	switch r.EffectiveMode() {
	case ModeJSON:
		return true, r.JSON(v)
	case ModeYAML:
		return true, r.YAML(v)
	}
	return false, nil
}

// FormatHeader returns a markdown header.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", max(level, 1)) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCodeBlock fences code for markdown output.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}
