package migrate_test

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/plywoodshop/storefront/pkg/db/dbtest"
	"github.com/plywoodshop/storefront/pkg/migrate"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(migrate.Migrations(), "*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)
	body, err := fs.ReadFile(migrate.Migrations(), matches[0])
	require.NoError(t, err)
	return string(body)
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.Validate(migrate.Migrations()))
}

func TestEmbeddedMigrationsMatchSourceDir(t *testing.T) {
	onDisk, err := fs.Glob(os.DirFS("migrations"), "*.sql")
	require.NoError(t, err)
	shipped, err := fs.Glob(migrate.Migrations(), "*.sql")
	require.NoError(t, err)
	assert.Equal(t, onDisk, shipped)
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_products_table": {
			"CREATE TABLE IF NOT EXISTS products",
			"thickness     NUMERIC(5,1)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_slug",
		},
		"create_orders_table": {
			"CREATE TABLE IF NOT EXISTS orders",
			"CREATE TABLE IF NOT EXISTS order_items",
			"REFERENCES orders(id) ON DELETE CASCADE",
			"chk_orders_status CHECK (status IN ('new', 'confirmed', 'shipped', 'completed', 'cancelled'))",
		},
		"create_blog_posts_table": {
			"CREATE TABLE IF NOT EXISTS blog_posts",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_blog_posts_slug",
		},
	}
	for suffix, statements := range cases {
		body := embeddedMigration(t, suffix)
		for _, stmt := range statements {
			assert.Contains(t, body, stmt, suffix)
		}
	}
}

func TestValidateRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"bad_name.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"20260101000000_missing_down.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"reversed": {
			"20260101000000_reversed.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")},
		},
		"duplicate version": {
			"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"empty": {},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, migrate.Validate(fsys))
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)

	path, err := migrate.CreateSQLMigration(dir, "Add Product Video!", now)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "20260305103000_add_product_video.sql"), path)
	require.NoError(t, migrate.Validate(os.DirFS(dir)))

	_, err = migrate.CreateSQLMigration(dir, "add product video", now)
	assert.Error(t, err, "same version and name must not overwrite")

	_, err = migrate.CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

// The runner is exercised on SQLite with portable statements; the shipped
// files are Postgres only.
func TestRunnerUpDownAndMigrateTo(t *testing.T) {
	sqlDB, err := dbtest.Open(t).DB()
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"20260101000000_widgets.sql": {Data: []byte("-- +goose Up\nCREATE TABLE widgets (id INTEGER PRIMARY KEY);\n-- +goose Down\nDROP TABLE widgets;\n")},
		"20260102000000_gadgets.sql": {Data: []byte("-- +goose Up\nCREATE TABLE gadgets (id INTEGER PRIMARY KEY);\n-- +goose Down\nDROP TABLE gadgets;\n")},
	}
	runner, err := migrate.NewRunner(sqlDB, goose.DialectSQLite3, fsys, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, runner.Up(ctx))
	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 20260102000000, version)

	require.NoError(t, runner.Down(ctx))
	version, _ = runner.Version(ctx)
	assert.EqualValues(t, 20260101000000, version)

	require.NoError(t, runner.MigrateTo(ctx, "20260102000000"))
	version, _ = runner.Version(ctx)
	assert.EqualValues(t, 20260102000000, version)

	assert.Error(t, runner.MigrateTo(ctx, "yesterday"))

	var status bytes.Buffer
	require.NoError(t, runner.Status(ctx, &status))
	assert.Contains(t, status.String(), "20260101000000_widgets.sql")
	assert.Contains(t, status.String(), "applied")
}
