//go:build !(darwin || linux || freebsd)

package tool

import (
	"os/exec"
	"time"
)

// setupProcessGroup only bounds pipe reads; the default cancel kills the
// direct child.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = 3 * time.Second
}
