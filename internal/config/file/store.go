// Package file provides a file-based config.Store implementation.
//
// Configuration is persisted as a versioned envelope:
//
//	{"version": 1, "config": { ... }}
//
// Paths ending in .yaml or .yml are written as YAML with the same shape;
// anything else is JSON. Every save rewrites the whole file atomically.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"loglens/internal/config"
)

const currentVersion = 1

// envelope is the versioned on-disk format.
type envelope struct {
	Version int            `json:"version" yaml:"version"`
	Config  *config.Config `json:"config" yaml:"config"`
}

// rawEnvelope is the envelope before the config is decoded, used for
// version checks and migrations.
type rawEnvelope struct {
	Version int            `json:"version" yaml:"version"`
	Config  map[string]any `json:"config" yaml:"config"`
}

// Store is a file-based config.Store implementation.
// Writes are atomic via temp file + rename with round-trip validation.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ config.Store = (*Store)(nil)

// NewStore creates a new file-based store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) yaml() bool {
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (s *Store) unmarshal(data []byte, v any) error {
	if s.yaml() {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func (s *Store) marshal(v any) ([]byte, error) {
	if s.yaml() {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Load reads the configuration from disk.
// Returns nil if the file does not exist.
func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads and parses the config file. Returns nil,nil if not found.
func (s *Store) load() (*config.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw rawEnvelope
	if err := s.unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if raw.Version == 0 {
		return nil, fmt.Errorf("unversioned config file detected; delete %s to bootstrap a fresh config", s.path)
	}

	if raw.Version > currentVersion {
		return nil, fmt.Errorf("config file version %d is newer than supported version %d", raw.Version, currentVersion)
	}

	if raw.Version < currentVersion {
		if err := s.migrateFile(data, raw); err != nil {
			return nil, fmt.Errorf("migrate config: %w", err)
		}
		// Re-read after migration.
		data, err = os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read migrated config: %w", err)
		}
	}

	var env envelope
	if err := s.unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return env.Config, nil
}

// Save atomically replaces the config file. The config is validated
// first; an invalid config is not written.
func (s *Store) Save(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(cfg)
}

// Update loads the config (DefaultConfig when none exists), applies fn
// and saves the result. Nothing is written if fn or validation fails.
func (s *Store) Update(ctx context.Context, fn func(*config.Config) error) (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.flush(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flush atomically writes the config to disk with round-trip validation.
func (s *Store) flush(cfg *config.Config) error {
	env := envelope{Version: currentVersion, Config: cfg}
	data, err := s.marshal(env)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return s.writeAtomic(data)
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Round-trip validation: re-read and verify it decodes.
	check, err := os.ReadFile(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("read-back temp file: %w", err)
	}
	var verify envelope
	if err := s.unmarshal(check, &verify); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("round-trip validation failed: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename config file: %w", err)
	}
	return nil
}
