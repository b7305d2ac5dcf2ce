package db

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ringroad/internal/monitoring"
)

func TestRunMigrateCommand(t *testing.T) {
	defer monitoring.Mute()()

	database, err := OpenNoMigrate(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer database.Close()

	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		err := RunMigrateCommand(&buf, database, args)
		return buf.String(), err
	}
	version := func() uint {
		v, dirty, err := database.MigrateVersion()
		require.NoError(t, err)
		assert.False(t, dirty)
		return v
	}

	out, err := run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")

	out, err = run("up")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 2")

	_, err = run("down")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version())

	out, err = run("version", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated to version 2")
	assert.Equal(t, uint(2), version())

	_, err = run("force", "1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version())

	out, err = run("help")
	require.NoError(t, err)
	assert.Contains(t, out, "force <N>")
}

func TestRunMigrateCommandErrors(t *testing.T) {
	defer monitoring.Mute()()

	database, err := OpenNoMigrate(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer database.Close()

	tests := []struct {
		name string
		args []string
	}{
		{"no action", nil},
		{"unknown action", []string{"sideways"}},
		{"version without number", []string{"version"}},
		{"version not a number", []string{"version", "two"}},
		{"negative version", []string{"version", "-1"}},
		{"force without number", []string{"force"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, RunMigrateCommand(&buf, database, tt.args))
		})
	}
}
