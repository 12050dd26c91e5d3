package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig controls size-based rotation of a log file.
type RotationConfig struct {
	// MaxSizeMB rotates the file once a write would push it past this
	// size. Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files (path.1 newest .. path.N
	// oldest) are kept.
	MaxBackups int
}

// RotatingWriter is an append-only file writer that rotates by size.
// It is safe for concurrent use.
type RotatingWriter struct {
	mu sync.Mutex

	path       string
	maxBytes   int64
	maxBackups int

	file *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating parent directories
// as needed.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:       path,
		maxBytes:   int64(cfg.MaxSizeMB) << 20,
		maxBackups: cfg.MaxBackups,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.file = f
	rw.size = info.Size()
	return nil
}

// Write appends p, rotating first if p would overflow the size limit.
// A failed rotation is reported on stderr and the write goes to the
// current file so no log line is lost.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, errors.New("log file is closed")
	}
	if rw.maxBytes > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.maxBytes {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "lockable: log rotation failed: %v\n", err)
			if rw.file == nil {
				return 0, err
			}
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate shifts path -> path.1 -> ... -> path.N and reopens path.
// The caller must hold mu.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.file = nil

	var renameErr error
	if rw.maxBackups > 0 {
		_ = os.Remove(rw.backup(rw.maxBackups))
		for i := rw.maxBackups - 1; i >= 1; i-- {
			_ = os.Rename(rw.backup(i), rw.backup(i+1))
		}
		renameErr = os.Rename(rw.path, rw.backup(1))
	} else {
		renameErr = os.Truncate(rw.path, 0)
	}

	if err := rw.open(); err != nil {
		return err
	}
	if renameErr != nil {
		return fmt.Errorf("failed to rotate log file: %w", renameErr)
	}
	return nil
}

func (rw *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// Close syncs and closes the current file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	f := rw.file
	rw.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return f.Close()
}
