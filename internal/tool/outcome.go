package tool

import (
	"regexp"
	"strconv"

	"github.com/mrz1836/patchbay/internal/constants"
)

// Outcome is the normalized result of one tool invocation.
// Success is exactly ExitCode == 0 for a process that was not timed out.
type Outcome struct {
	Tool       string `json:"tool,omitempty"`
	Command    string `json:"command,omitempty"`
	Success    bool   `json:"success"`
	ExitCode   int    `json:"exitCode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	TimedOut   bool   `json:"timedOut,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// timeoutOutcome marks o as killed by its deadline.
func timeoutOutcome(o *Outcome) {
	o.Success = false
	o.TimedOut = true
	o.ExitCode = constants.TimeoutExitCode
	if o.Stderr == "" {
		o.Stderr = constants.TimeoutStderr
	} else {
		o.Stderr += "\n" + constants.TimeoutStderr
	}
}

// LintResult is the outcome of the lint tool.
type LintResult struct {
	Outcome

	// Issues is the count the linter reported ("Found N errors"), or -1
	// when the output did not say.
	Issues int `json:"issues"`
}

// TestResult is the outcome of the test suite.
type TestResult struct {
	Outcome

	// Passed and Failed come from the runner's summary line, -1 when absent.
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// TypecheckResult is the outcome of the type checker.
type TypecheckResult struct {
	Outcome

	// Errors is the reported error count, or -1 when the output did not say.
	Errors int `json:"errors"`
}

var (
	foundErrorsRe = regexp.MustCompile(`Found (\d+) errors?`)
	passedRe      = regexp.MustCompile(`(\d+) passed`)
	failedRe      = regexp.MustCompile(`(\d+) failed`)
	noIssuesRe    = regexp.MustCompile(`All checks passed|Success: no issues found`)
)

// NewLintResult wraps o, reading the issue count from its output.
func NewLintResult(o Outcome) *LintResult {
	return &LintResult{Outcome: o, Issues: reportedErrors(o)}
}

// NewTypecheckResult wraps o, reading the error count from its output.
func NewTypecheckResult(o Outcome) *TypecheckResult {
	return &TypecheckResult{Outcome: o, Errors: reportedErrors(o)}
}

// NewTestResult wraps o, reading pass/fail counts from its summary.
func NewTestResult(o Outcome) *TestResult {
	out := o.Stdout + "\n" + o.Stderr
	res := &TestResult{Outcome: o, Passed: lastCount(passedRe, out), Failed: lastCount(failedRe, out)}
	if res.Passed >= 0 && res.Failed < 0 {
		res.Failed = 0
	}
	return res
}

func reportedErrors(o Outcome) int {
	out := o.Stdout + "\n" + o.Stderr
	if n := lastCount(foundErrorsRe, out); n >= 0 {
		return n
	}
	if noIssuesRe.MatchString(out) {
		return 0
	}
	return -1
}

// lastCount returns the number captured by the last match of re, or -1.
func lastCount(re *regexp.Regexp, s string) int {
	all := re.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return -1
	}
	n, err := strconv.Atoi(all[len(all)-1][1])
	if err != nil {
		return -1
	}
	return n
}

// ModuleResult is the outcome of RunModule, in the shape clients of the
// run endpoint expect.
type ModuleResult struct {
	OK       bool   `json:"ok"`
	Exit     int    `json:"exit"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// CheckReport collects the three tools run by RunChecks.
type CheckReport struct {
	Success   bool             `json:"success"`
	Lint      *LintResult      `json:"lint,omitempty"`
	Typecheck *TypecheckResult `json:"typecheck,omitempty"`
	Test      *TestResult      `json:"test,omitempty"`
}
