package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobboard-gateway/internal/logging/types"
)

// FileAdapter appends formatted entries to a file, rotating it when it grows past MaxSize
type FileAdapter struct {
	name        string
	config      FileConfig
	file        *os.File
	currentSize int64
	mu          sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	Path       string `yaml:"path"`
	Format     string `yaml:"format"`      // json or text
	MaxSize    int64  `yaml:"max_size"`    // bytes, 0 disables rotation
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
}

// NewFileAdapter opens (or creates) the log file and its parent directory
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("file adapter %s: path is required", name)
	}
	if config.Format == "" {
		config.Format = "json"
	}

	a := &FileAdapter{name: name, config: config}
	if err := a.open(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *FileAdapter) open() error {
	if err := os.MkdirAll(filepath.Dir(a.config.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(a.config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	a.file = f
	a.currentSize = info.Size()
	return nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.config.Format, false)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}
	data := []byte(line + "\n")

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}

	if a.config.MaxSize > 0 && a.currentSize+int64(len(data)) > a.config.MaxSize {
		if err := a.rotate(); err != nil {
			return err
		}
	}

	n, err := a.file.Write(data)
	a.currentSize += int64(n)
	return err
}

// rotate renames the current file with a timestamp suffix and prunes old backups
func (a *FileAdapter) rotate() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	a.file = nil

	backup := fmt.Sprintf("%s.%s", a.config.Path, time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(a.config.Path, backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	if a.config.MaxBackups > 0 {
		matches, _ := filepath.Glob(a.config.Path + ".*")
		// timestamp suffixes sort chronologically
		for len(matches) > a.config.MaxBackups {
			os.Remove(matches[0])
			matches = matches[1:]
		}
	}

	return a.open()
}

func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

func (a *FileAdapter) Name() string {
	return a.name
}
