package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Render executes the template id with data.
func Render(id PromptID, data any) (string, error) {
	tmpl, err := globalRegistry.get(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, string(id), data); err != nil {
		return "", errors.Join(ErrTemplateExecution, fmt.Errorf("prompt %s: %w", id, err))
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// List returns all registered prompt IDs, sorted.
func List() []PromptID {
	return globalRegistry.list()
}
