package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"
)

var migrationTemplate = template.Must(template.New("migration").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.Name}}: write the forward change here.
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- {{.Name}}: undo the forward change here.
-- +goose StatementEnd
`))

// CreateSQLMigration writes an empty migration named
// <dir>/<YYYYMMDDHHMMSS>_<snake_name>.sql, versioned by now in UTC, and
// returns its path. An existing file is never overwritten.
func CreateSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("migration dir is required")
	}
	snake := snakeName(name)
	if snake == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(dir, now.UTC().Format("20060102150405")+"_"+snake+".sql")
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	defer f.Close()

	if err := migrationTemplate.Execute(f, struct{ Name string }{snake}); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// snakeName keeps ASCII letters and digits, lowercased, and joins every other
// run of characters into a single underscore.
func snakeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	return b.String()
}
