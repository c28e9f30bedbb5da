package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// Validate checks every .sql file at the top of migrations: the file name
// carries a unique 14 digit version and the body has an Up section followed
// by a Down section.
func Validate(migrations fs.FS) error {
	sqlFiles, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(sqlFiles) == 0 {
		return fmt.Errorf("no migrations found")
	}

	versions := make(map[string]string, len(sqlFiles))
	for _, file := range sqlFiles {
		name := path.Base(file)
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("%s: want YYYYMMDDHHMMSS_snake_name.sql", name)
		}
		if first, dup := versions[match[1]]; dup {
			return fmt.Errorf("%s: version %s already used by %s", name, match[1], first)
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(migrations, file)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := checkSections(string(body)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func checkSections(body string) error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", upMarker)
	case down < 0:
		return fmt.Errorf("missing %q", downMarker)
	case down < up:
		return fmt.Errorf("%q comes before %q", downMarker, upMarker)
	}
	return nil
}
