// Package home manages the loglens home directory layout.
//
// Layout:
//
//	<root>/
//	  config.json  or  config.yaml    (persisted settings)
//	  transforms/                     (saved transform scripts)
package home

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir represents a loglens home directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir using the platform-appropriate default location:
//   - Linux:   ~/.config/loglens
//   - macOS:   ~/Library/Application Support/loglens
//   - Windows: %APPDATA%/loglens
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("determine config directory: %w", err)
	}
	return Dir{root: filepath.Join(base, "loglens")}, nil
}

// Root returns the home directory path.
func (d Dir) Root() string {
	return d.root
}

// ConfigPath returns the settings file path. An existing config.yaml or
// config.yml is preferred; otherwise config.json.
func (d Dir) ConfigPath() string {
	for _, name := range []string{"config.yaml", "config.yml"} {
		p := filepath.Join(d.root, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(d.root, "config.json")
}

// TransformDir returns the directory holding saved transform scripts.
func (d Dir) TransformDir() string {
	return filepath.Join(d.root, "transforms")
}

// TransformPath resolves a script name. Names without a directory are
// looked up in TransformDir, with ".go" appended when missing; anything
// else is returned unchanged.
func (d Dir) TransformPath(name string) string {
	if filepath.Base(name) != name {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if filepath.Ext(name) == "" {
		name += ".go"
	}
	return filepath.Join(d.TransformDir(), name)
}

// EnsureExists creates the home directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("create home directory %s: %w", d.root, err)
	}
	return nil
}

// Exists reports whether the home directory exists.
func (d Dir) Exists() (bool, error) {
	info, err := os.Stat(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat home directory: %w", err)
	}
	return info.IsDir(), nil
}
