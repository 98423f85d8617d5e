// Package lock keeps two kvpview processes on one host from rewriting the
// same views concurrently.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/reloquent/kvpview/internal/config"
)

const DefaultPath = "~/.kvpview/kvpview.lock"

// HeldError is returned by Acquire when a live process owns the lock.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("another kvpview run is in progress (PID %d, lock %s)", e.PID, e.Path)
}

// Lock is a PID file. The zero value is not usable; call Acquire.
type Lock struct {
	path string
}

// Acquire writes the current PID to path. A lock left by a dead process is
// taken over.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		path = DefaultPath
	}
	path = config.ExpandHome(path)

	if held, pid, err := IsHeld(path); err != nil {
		return nil, err
	} else if held && pid != os.Getpid() {
		return nil, &HeldError{Path: path, PID: pid}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("writing lock: %w", err)
	}
	return &Lock{path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file. Releasing twice is not an error.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// IsHeld reports whether the lock at path belongs to a running process, and
// the PID recorded in it.
func IsHeld(path string) (bool, int, error) {
	data, err := os.ReadFile(config.ExpandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("reading lock: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0, nil
	}
	return isProcessRunning(pid), pid, nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
