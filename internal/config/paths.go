package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	BaseDir       string
	RawDataDir    string
	ProcessedDir  string
	ReferenceFile string
	LogsDir       string
}

// ResolvePaths builds the application paths from configuration. Relative
// paths are resolved against BaseDir; when BaseDir itself is empty the
// executable directory is used, never the current working directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %v", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
		}
		baseDir = filepath.Dir(exe)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	return &Paths{
		BaseDir:       baseDir,
		RawDataDir:    resolve(cfg.RawDataDir),
		ProcessedDir:  resolve(cfg.ProcessedDir),
		ReferenceFile: resolve(cfg.ReferenceFile),
		LogsDir:       resolve(cfg.LogsDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist.
// The reference file's directory is included so a fresh install has a place
// to drop the reference workbook.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.RawDataDir,
		p.ProcessedDir,
		p.LogsDir,
		filepath.Dir(p.ReferenceFile),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

// PeriodDir returns the processed-output directory for a YYYY_MM period
// token.
func (p *Paths) PeriodDir(periodToken string) string {
	return filepath.Join(p.ProcessedDir, periodToken)
}

// GetLogPath returns the path for a named log file inside the logs
// directory.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
