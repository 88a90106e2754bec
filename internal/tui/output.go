package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/patchbay/internal/errors"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the valid output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// IsValidFormat reports whether f is one of Formats.
func IsValidFormat(f string) bool {
	return slices.Contains(Formats(), f)
}

// Output writes command results. Text output prints status lines and
// leaves structured values to the caller's renderer; the structured
// formats print only values and errors.
type Output interface {
	Success(msg string)
	Error(err error)
	Warning(msg string)
	Info(msg string)
	// Value encodes v. It returns false for text output, where the caller
	// renders v itself.
	Value(v any) (bool, error)
	// Structured reports whether this is a machine-readable format.
	Structured() bool
}

// NewOutput returns the Output for format. Unknown formats get text.
func NewOutput(w io.Writer, format string) Output {
	switch format {
	case FormatJSON:
		return &structuredOutput{w: w, encode: encodeJSON}
	case FormatYAML:
		return &structuredOutput{w: w, encode: encodeYAML}
	default:
		return NewTTYOutput(w)
	}
}

// TTYOutput prints styled status lines.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTTYOutput creates a TTYOutput.
func NewTTYOutput(w io.Writer) *TTYOutput {
	return &TTYOutput{w: w, styles: NewOutputStyles()}
}

// Success prints a success line.
func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error prints the user-facing message for err and, when known, what to do about it.
func (o *TTYOutput) Error(err error) {
	msg, action := errors.Actionable(err)
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+msg))
	if msg != err.Error() {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  "+err.Error()))
	}
	if action != "" {
		_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("  → "+action))
	}
}

// Warning prints a warning line.
func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info prints an informational line.
func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render(msg))
}

// Value does nothing for text output.
func (o *TTYOutput) Value(any) (bool, error) {
	return false, nil
}

// Structured is false.
func (o *TTYOutput) Structured() bool {
	return false
}

// errorValue is how errors appear in json and yaml output.
type errorValue struct {
	Error  string `json:"error" yaml:"error"`
	Kind   string `json:"kind" yaml:"kind"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
}

type structuredOutput struct {
	w      io.Writer
	encode func(io.Writer, any) error
}

func (o *structuredOutput) Success(string) {}
func (o *structuredOutput) Warning(string) {}
func (o *structuredOutput) Info(string)    {}

func (o *structuredOutput) Error(err error) {
	_, action := errors.Actionable(err)
	_ = o.encode(o.w, errorValue{
		Error:  err.Error(),
		Kind:   errors.Kind(err),
		File:   errors.OffendingFile(err),
		Action: action,
	})
}

func (o *structuredOutput) Value(v any) (bool, error) {
	return true, o.encode(o.w, v)
}

func (o *structuredOutput) Structured() bool {
	return true
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// encodeYAML round-trips v through JSON first so field names, field order
// and omitempty follow the json tags every result type already carries.
func encodeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
