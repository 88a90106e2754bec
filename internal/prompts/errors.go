// Package prompts holds the text templates sent to the proposal source.
// Templates are embedded at compile time and parsed once at init.
package prompts

import "errors"

var (
	// ErrTemplateNotFound indicates the requested template doesn't exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExecution indicates a failure during template execution.
	ErrTemplateExecution = errors.New("template execution failed")
)
