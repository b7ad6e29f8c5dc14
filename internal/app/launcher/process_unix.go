//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureDetached puts the widget in a new session so it survives the
// launcher and the terminal it was started from.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
