package launcher

import "os/exec"

// configureDetached is a no-op on Windows; widgets only run on Linux.
func configureDetached(_ *exec.Cmd) {}
