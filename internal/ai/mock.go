package ai

import (
	"context"
	"unicode/utf8"
)

// mockEchoRunes is how much of the prompt the mock echoes.
const mockEchoRunes = 64

// Mock echoes the start of the prompt. It never contains a diff, so an
// agent run against it stops at the propose stage.
type Mock struct{}

// Propose returns "MOCK: <first 64 characters of prompt>...".
func (Mock) Propose(_ context.Context, prompt string) (*Completion, error) {
	return &Completion{Text: "MOCK: " + truncateRunes(prompt, mockEchoRunes) + "...", Mock: true}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Static always returns the same text. It is useful for replaying a saved
// model response through an agent run.
type Static struct {
	Text string
}

// Propose returns s.Text.
func (s Static) Propose(_ context.Context, _ string) (*Completion, error) {
	return &Completion{Text: s.Text}, nil
}

var (
	_ Proposer = Mock{}
	_ Proposer = Static{}
)
