package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marinerbyte/Ytmagic/config"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"migrations/000001_create_deliveries.down.sql",
		"migrations/000001_create_deliveries.up.sql",
	}, files)

	up, err := fs.ReadFile(migrationsFS, "migrations/000001_create_deliveries.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS deliveries")
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{
		Host: "db", Port: "5432", User: "bot", Password: "secret", Name: "ytmagic", SSLMode: "disable",
	})
	assert.Equal(t, "host=db port=5432 user=bot password=secret dbname=ytmagic sslmode=disable", dsn)
}
