package opcontrol

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile manages a PID file with flock-based locking to prevent two
// supervisors from running against the same data directory at once.
type PIDFile struct {
	path string
	file *os.File
}

// NewPIDFile creates a PIDFile instance for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// Write creates and locks the PID file, writing the current process ID.
// Returns an error if another process holds the lock.
func (p *PIDFile) Write() error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}

	file, err := os.OpenFile(p.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open pid file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("supervisor already running (pid file locked)")
		}
		return fmt.Errorf("lock pid file: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		p.unlockAndClose(file)
		return fmt.Errorf("truncate pid file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		p.unlockAndClose(file)
		return fmt.Errorf("seek pid file: %w", err)
	}
	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		p.unlockAndClose(file)
		return fmt.Errorf("write pid: %w", err)
	}
	if err := file.Sync(); err != nil {
		p.unlockAndClose(file)
		return fmt.Errorf("sync pid file: %w", err)
	}

	p.file = file
	return nil
}

// Read returns the PID from the file, or 0 if the file doesn't exist or
// is invalid.
func (p *PIDFile) Read() int {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// Remove releases the lock and removes the PID file.
func (p *PIDFile) Remove() error {
	if p.file != nil {
		p.unlockAndClose(p.file)
		p.file = nil
	}
	_ = os.Remove(p.path)
	return nil
}

func (p *PIDFile) unlockAndClose(file *os.File) {
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	_ = file.Close()
}

// IsProcessRunning checks if the given PID represents a running process.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// IsRunning reports whether the PID file exists and names a live process.
func (p *PIDFile) IsRunning() bool {
	return IsProcessRunning(p.Read())
}

// CleanupStale removes stale PID and socket files left behind by a crash.
func (p *PIDFile) CleanupStale(socketPath string) {
	if p.IsRunning() {
		return
	}
	_ = os.Remove(p.path)
	if socketPath != "" {
		_ = os.Remove(socketPath)
	}
}
