package launcher

import "os/exec"

// startDetached starts name in its own session with stdio on /dev/null and
// lets it outlive the launcher.
func startDetached(name string, args []string, dir string, env []string) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = env
	configureDetached(cmd)

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Nothing waits on the widget; release it so the launcher can exit.
	_ = cmd.Process.Release()
	return pid, nil
}
