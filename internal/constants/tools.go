package constants

// ToolName identifies one quality-gate tool category.
type ToolName string

// Tool categories accepted by runTool.
const (
	ToolLint      ToolName = "lint"
	ToolTest      ToolName = "test"
	ToolTypecheck ToolName = "typecheck"
)

// String returns the string representation of the ToolName.
func (t ToolName) String() string {
	return string(t)
}

// ToolNames returns every supported tool category.
func ToolNames() []ToolName {
	return []ToolName{ToolLint, ToolTest, ToolTypecheck}
}

// Default tool commands, matching a uv-managed Python project layout.
const (
	DefaultLintCommand      = "uv run ruff check ."
	DefaultTestCommand      = "uv run pytest -q"
	DefaultTypecheckCommand = "uv run mypy src"
	DefaultModuleCommand    = "uv run python -m"
)

// ToolGit is the Git version control executable.
const ToolGit = "git"
