// Package pidlock takes out an OS-level lock file under a run's
// data-path for the run's duration, refusing a second concurrent
// invocation against the same corpus — the batch-pipeline analogue of
// the teacher's single-daemon-instance PID-file guarantee, adapted
// from the teacher's infrastructure/pidfile package.
package pidlock

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// RunLock manages one lock file for the duration of a siteupdate run.
type RunLock struct {
	path string
}

// New creates a RunLock at path (conventionally <data-path>/.siteupdate.lock).
func New(path string) *RunLock {
	return &RunLock{path: path}
}

// Acquire takes out the lock, failing if another run already holds it.
func (l *RunLock) Acquire() error {
	if _, err := os.Stat(l.path); err == nil {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return fmt.Errorf("failed to read existing run lock: %w", err)
		}

		pidStr := strings.TrimSpace(string(data))
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			_ = os.Remove(l.path)
		} else if isProcessRunning(pid) {
			return fmt.Errorf("another siteupdate run is already in progress against this data path (PID %d)", pid)
		} else {
			_ = os.Remove(l.path)
		}
	}

	pid := os.Getpid()
	if err := os.WriteFile(l.path, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		return fmt.Errorf("failed to write run lock: %w", err)
	}
	return nil
}

// Release removes the lock file.
func (l *RunLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove run lock: %w", err)
	}
	return nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if err == syscall.ESRCH {
		return false
	}
	if err == syscall.EPERM {
		return true
	}
	return false
}
