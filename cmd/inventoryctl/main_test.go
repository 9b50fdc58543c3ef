package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestOperatorCommands(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "inventory.db"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "check-admin")
	assert.ErrorContains(t, err, "no admin account")

	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, `"products": 20`)

	out, err = run(t, "check-admin")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@freshcount.com")

	out, err = run(t, "reset-password", "--email", "admin@freshcount.com", "--password", "changed1")
	require.NoError(t, err)
	assert.Contains(t, out, "has been reset")

	_, err = run(t, "reset-password", "--email", "missing@freshcount.com", "--password", "changed1")
	assert.Error(t, err)
}
