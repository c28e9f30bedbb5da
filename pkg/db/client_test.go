package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plywoodshop/storefront/pkg/config"
	"github.com/plywoodshop/storefront/pkg/db/dbtest"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type ledgerRow struct {
	ID   int
	Name string
}

func openLedger(t *testing.T) *Client {
	t.Helper()
	return NewFromGorm(dbtest.Open(t, &ledgerRow{}))
}

func countRows(t *testing.T, client *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, client.DB().Model(&ledgerRow{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := openLedger(t)
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Name: "committed"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countRows(t, client))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := openLedger(t)
	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&ledgerRow{Name: "rolled"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countRows(t, client))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	client := openLedger(t)
	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&ledgerRow{Name: "half"})
			panic("mid transaction")
		})
	})
	assert.Zero(t, countRows(t, client))
}

func TestPing(t *testing.T) {
	assert.NoError(t, openLedger(t).Ping(context.Background()))
}

func TestNewOpensSQLite(t *testing.T) {
	cfg := config.DBConfig{SQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared", MaxOpenConns: 2}
	client, err := New(context.Background(), cfg, true, nil)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "sqlite", client.DB().Dialector.Name())
	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 2, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenDialector(t *testing.T) {
	d, err := openDialector(config.DBConfig{}, true)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = openDialector(config.DBConfig{}, false)
	assert.Error(t, err)

	d, err = openDialector(config.DBConfig{DSN: "postgres://u:p@localhost:5432/db"}, false)
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})
	ql := newQueryLogger(logg, 10*time.Millisecond)
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(context.Background(), time.Now(), stmt, nil)
	assert.Zero(t, buf.Len(), "fast successful queries stay quiet")

	ql.Trace(context.Background(), time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len(), "not found is not a failure")

	ql.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "db.slow_query")
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)

	buf.Reset()
	ql.Trace(context.Background(), time.Now(), stmt, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "db.query_failed")

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), stmt, errors.New("syntax error"))
	assert.Zero(t, buf.Len())
}
