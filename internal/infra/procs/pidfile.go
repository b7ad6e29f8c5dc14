package procs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/fsutil"
)

// WritePIDFile records pid at path, replacing any previous content.
func WritePIDFile(path string, pid int) error {
	data := []byte(strconv.Itoa(pid) + "\n")
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPIDWrite, path, err)
	}
	return nil
}

// ReadPIDFile returns the pid stored at path. A missing file yields 0 and
// no error.
func ReadPIDFile(path string) (int32, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s: invalid content %q", path, strings.TrimSpace(string(data)))
	}
	return int32(pid), nil
}

// RemovePIDFile deletes path, ignoring a missing file.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
