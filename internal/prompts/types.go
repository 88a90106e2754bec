package prompts

// PromptID names a template by its path under templates/ without the
// .tmpl extension.
type PromptID string

// AgentPropose asks the model for a diff implementing a task.
const AgentPropose PromptID = "agent/propose"

// AgentProposeData is the input of AgentPropose.
type AgentProposeData struct {
	// Task is the caller's description of the change.
	Task string
	// Root is the sandbox root, shown to the model for orientation.
	Root string
	// Files optionally lists sandbox-relative paths worth looking at.
	Files []string
	// Context is free text appended under its own heading when non-empty.
	Context string
}
