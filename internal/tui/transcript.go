package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrz1836/patchbay/internal/agent"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/tool"
)

// outputTailLines is how much tool output the text transcript shows.
// The full output is always available through --output json.
const outputTailLines = 20

var (
	markdownRenderer     *glamour.TermRenderer //nolint:gochecknoglobals // cached renderer
	markdownRendererOnce sync.Once             //nolint:gochecknoglobals // guards markdownRenderer
)

func getMarkdownRenderer() *glamour.TermRenderer {
	markdownRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	return markdownRenderer
}

// Renderer writes human-readable results.
type Renderer struct {
	w      io.Writer
	styles *OutputStyles
	title  cases.Caser

	// Markdown renders model proposals with glamour. Leave off when the
	// writer is not a terminal.
	Markdown bool
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		w:      w,
		styles: NewOutputStyles(),
		title:  cases.Title(language.English),
	}
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// Record prints an agent run transcript.
func (r *Renderer) Record(rec *agent.Record) {
	r.printf("%s %s\n", r.styles.Header.Render("Agent run"), r.styles.Dim.Render(rec.ID))
	r.printf("Task: %s\n\n", rec.Task)

	for i := range rec.Stages {
		sr := &rec.Stages[i]
		r.stage(sr)
		if sr.Stage == constants.StagePropose && rec.Proposal != "" {
			r.proposal(rec.Proposal)
		}
	}

	r.printf("\n%s %s\n", StyleBold.Render("Status:"), RunStatusStyle(rec.Status).Render(rec.Status.String()))
}

func (r *Renderer) stage(sr *agent.StageRecord) {
	style := r.styles.Success
	if !sr.OK {
		style = r.styles.Error
	}
	name := r.title.String(sr.Stage.String())
	r.printf("%s %-9s %s\n", style.Render(StatusIcon(sr.OK)), name, r.styles.Dim.Render(fmt.Sprintf("%dms", sr.DurationMs)))

	if sr.Error != "" {
		r.printf("    %s\n", r.styles.Error.Render(sr.Error))
	}
	if sr.File != "" {
		r.printf("    file: %s\n", sr.File)
	}
	if sr.Preview != nil {
		r.list("    ", sr.Preview.Files)
	}
	if sr.Apply != nil {
		r.list("    changed ", sr.Apply.Changed)
	}
	if sr.CommitMessage != "" {
		r.printf("    commit: %q\n", sr.CommitMessage)
	}
	if sr.Validation != nil {
		r.outputTail("    ", &sr.Validation.Outcome)
	}
}

func (r *Renderer) proposal(text string) {
	if r.Markdown {
		if md := getMarkdownRenderer(); md != nil {
			if out, err := md.Render(text); err == nil {
				r.printf("%s", out)
				return
			}
		}
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		r.printf("    %s\n", r.styles.Dim.Render(line))
	}
}

func (r *Renderer) list(prefix string, items []string) {
	for _, it := range items {
		r.printf("%s%s\n", prefix, it)
	}
}

// outputTail prints the last lines of stdout and stderr.
func (r *Renderer) outputTail(indent string, o *tool.Outcome) {
	for _, stream := range []string{o.Stdout, o.Stderr} {
		lines := strings.Split(strings.TrimRight(stream, "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			continue
		}
		if len(lines) > outputTailLines {
			r.printf("%s%s\n", indent, r.styles.Dim.Render(fmt.Sprintf("... %d lines omitted", len(lines)-outputTailLines)))
			lines = lines[len(lines)-outputTailLines:]
		}
		for _, l := range lines {
			r.printf("%s%s\n", indent, l)
		}
	}
}

// Preview prints the files a diff would touch.
func (r *Renderer) Preview(res *patch.PreviewResult) {
	r.printf("%s\n", r.styles.Header.Render(fmt.Sprintf("%d file(s) would change", len(res.Files))))
	r.list("  ", res.Files)
}

// Changed prints the files an apply wrote.
func (r *Renderer) Changed(paths []string) {
	r.printf("%s\n", r.styles.Success.Render(fmt.Sprintf("✓ applied to %d file(s)", len(paths))))
	r.list("  ", paths)
}

// Outcome prints one tool or git outcome.
func (r *Renderer) Outcome(o *tool.Outcome) {
	style := r.styles.Success
	if !o.Success {
		style = r.styles.Error
	}
	label := o.Tool
	if label == "" {
		label = o.Command
	}
	summary := fmt.Sprintf("exit %d", o.ExitCode)
	if o.TimedOut {
		summary = "timed out"
	}
	r.printf("%s %s %s\n", style.Render(StatusIcon(o.Success)), StyleBold.Render(label), r.styles.Dim.Render(fmt.Sprintf("(%s, %dms)", summary, o.DurationMs)))
	r.outputTail("  ", o)
	if o.Truncated {
		r.printf("  %s\n", r.styles.Warning.Render("output truncated"))
	}
}

// Checks prints a lint/typecheck/test report.
func (r *Renderer) Checks(rep *tool.CheckReport) {
	if rep.Lint != nil {
		r.Outcome(&rep.Lint.Outcome)
	}
	if rep.Typecheck != nil {
		r.Outcome(&rep.Typecheck.Outcome)
	}
	if rep.Test != nil {
		r.Outcome(&rep.Test.Outcome)
	}
}

// Module prints the result of a module run.
func (r *Renderer) Module(res *tool.ModuleResult) {
	r.printf("%s", res.Stdout)
	if res.Stderr != "" {
		r.printf("%s", r.styles.Dim.Render(res.Stderr))
		if !strings.HasSuffix(res.Stderr, "\n") {
			r.printf("\n")
		}
	}
	if !res.OK {
		r.printf("%s\n", r.styles.Error.Render(fmt.Sprintf("exit %d", res.Exit)))
	}
}

// Status prints a parsed git status.
func (r *Renderer) Status(res *git.StatusResult) {
	if res.Status == nil {
		r.Outcome(&res.Outcome)
		return
	}
	st := res.Status
	branch := st.Branch
	if branch == "" {
		branch = "(detached)"
	}
	r.printf("%s %s", StyleBold.Render("On branch"), branch)
	if st.Ahead > 0 || st.Behind > 0 {
		r.printf(" %s", r.styles.Dim.Render(fmt.Sprintf("[ahead %d, behind %d]", st.Ahead, st.Behind)))
	}
	r.printf("\n")
	if st.IsClean() {
		r.printf("%s\n", r.styles.Success.Render("working tree clean"))
		return
	}
	r.changes("Staged", st.Staged)
	r.changes("Unstaged", st.Unstaged)
	if len(st.Untracked) > 0 {
		r.printf("%s\n", r.styles.Warning.Render("Untracked:"))
		r.list("  ", st.Untracked)
	}
}

func (r *Renderer) changes(title string, fc []git.FileChange) {
	if len(fc) == 0 {
		return
	}
	r.printf("%s\n", r.styles.Info.Render(title+":"))
	for _, c := range fc {
		path := c.Path
		if c.OldPath != "" {
			path = c.OldPath + " -> " + c.Path
		}
		r.printf("  %-10s %s\n", changeWords[c.Status], path)
	}
}

//nolint:gochecknoglobals // read-only lookup table
var changeWords = map[git.ChangeType]string{
	git.ChangeAdded:    "added",
	git.ChangeModified: "modified",
	git.ChangeDeleted:  "deleted",
	git.ChangeRenamed:  "renamed",
	git.ChangeCopied:   "copied",
	git.ChangeUnmerged: "unmerged",
}

// Diff prints unified diff text with added and removed lines colored.
func (r *Renderer) Diff(text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			body = StyleBold.Render(body)
		case strings.HasPrefix(body, "@@"):
			body = r.styles.Hunk.Render(body)
		case strings.HasPrefix(body, "+"):
			body = r.styles.Added.Render(body)
		case strings.HasPrefix(body, "-"):
			body = r.styles.Removed.Render(body)
		}
		r.printf("%s\n", body)
	}
}

// KeyValues prints aligned "key  value" rows.
func (r *Renderer) KeyValues(rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		r.printf("%s  %s\n", r.styles.Dim.Render(fmt.Sprintf("%-*s", width, row[0])), row[1])
	}
}
