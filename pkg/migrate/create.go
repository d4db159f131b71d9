package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var slugUnsafeRe = regexp.MustCompile(`[^a-z0-9_]+`)

var migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<slug>.sql. The version is the
// current UTC time, bumped past the newest existing file so ordering stays
// strict when two migrations are created within the same second. A slug
// already present in dir is rejected.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(dir, slug)
	if err != nil {
		return "", err
	}
	version := time.Now().UTC().Truncate(time.Second)
	if !latest.IsZero() && !version.After(latest) {
		version = latest.Add(time.Second)
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version.Format(versionLayout), slug))
	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(migrationTemplate, slug)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func migrationSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugUnsafeRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func latestVersion(dir, slug string) (time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var latest time.Time
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if strings.TrimSuffix(e.Name()[len(m[1])+1:], ".sql") == slug {
			return time.Time{}, fmt.Errorf("migration %q already exists as %s", slug, e.Name())
		}
		v, err := time.Parse(versionLayout, m[1])
		if err == nil && v.After(latest) {
			latest = v
		}
	}
	return latest, nil
}
