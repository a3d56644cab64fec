package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

const migrationTemplate = `-- +goose Up

-- +goose Down
`

// CreateSQLMigration writes an empty timestamped SQL migration into each
// dir. All files share one version stamp so the dialect directories stay in
// step.
func CreateSQLMigration(name string, dirs ...string) ([]string, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if !migrationNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid migration name %q (use lower_snake_case)", name)
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("at least one migrations dir is required")
	}

	version := time.Now().UTC().Format("20060102150405")
	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create migrations dir: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, name))
		if err := os.WriteFile(path, []byte(migrationTemplate), 0o644); err != nil {
			return nil, fmt.Errorf("write migration file: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
