package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when a live process already runs the world
var ErrLocked = errors.New("world is already running")

// PIDFile keeps one runner per world on a host
type PIDFile struct {
	path string
}

// New creates a PID file at path
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// ForWorld returns the PID file guarding world inside dir
func ForWorld(dir, world string) *PIDFile {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, world)
	return New(filepath.Join(dir, fmt.Sprintf("factorysim-%s.pid", name)))
}

// Path returns the file location
func (p *PIDFile) Path() string { return p.path }

// Holder returns the PID recorded in the file if that process is alive
func (p *PIDFile) Holder() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !isProcessRunning(pid) {
		return 0, false
	}
	return pid, true
}

// Acquire records the current process. Stale or unreadable files are replaced.
func (p *PIDFile) Acquire() error {
	if pid, ok := p.Holder(); ok && pid != os.Getpid() {
		return fmt.Errorf("%w (PID %d)", ErrLocked, pid)
	}
	if err := os.WriteFile(p.path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// signal 0 only probes for existence
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
