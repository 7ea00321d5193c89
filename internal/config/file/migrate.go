package file

import (
	"fmt"
	"os"
)

// migration transforms the decoded config body from one version to the
// next in place. Bodies are generic maps so the same step serves JSON and
// YAML files.
type migration struct {
	from    int
	to      int
	migrate func(cfg map[string]any) error
}

// migrations is the ordered list of config migrations.
// Empty for now: version 1 is the initial format.
var migrations []migration

// migrateFile runs all necessary migrations on the config file.
// Before the first step, the current file is backed up.
func (s *Store) migrateFile(data []byte, raw rawEnvelope) error {
	current := raw.Version

	backupPath := fmt.Sprintf("%s.v%d.bak", s.path, current)
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return fmt.Errorf("backup before migration from v%d: %w", current, err)
	}

	body := raw.Config
	if body == nil {
		body = map[string]any{}
	}
	for _, m := range migrations {
		if m.from != current {
			continue
		}
		if err := m.migrate(body); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", m.from, m.to, err)
		}
		current = m.to
	}

	if current != currentVersion {
		return fmt.Errorf("no migration path from version %d to %d", raw.Version, currentVersion)
	}

	migrated, err := s.marshal(rawEnvelope{Version: current, Config: body})
	if err != nil {
		return fmt.Errorf("marshal migrated config: %w", err)
	}
	return s.writeAtomic(migrated)
}
