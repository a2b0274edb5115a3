package db_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/db"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(db.Migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, name := range files {
		body, err := fs.ReadFile(db.Migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestMigrations_JobColumns(t *testing.T) {
	t.Parallel()

	body, err := fs.ReadFile(db.Migrations, "migrations/20250401090100_notification_jobs.sql")
	require.NoError(t, err)

	for _, col := range []string{
		"id", "kind", "recipient", "listing_id", "payload", "attempts", "max_attempts", "state",
		"run_at", "locked_until", "locked_by", "last_error", "outcome", "occurred_at",
		"created_at", "updated_at", "finished_at",
	} {
		assert.True(t, strings.Contains(string(body), "\n    "+col+" "), "missing column %s", col)
	}
}
