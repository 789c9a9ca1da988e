package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")

	first, err := LoadOrCreateIdentity(path)
	require.NoError(t, err)
	require.NotEmpty(t, first.SecretKey)
	_, err = uuid.Parse(first.InstanceID)
	require.NoError(t, err, "instance id should be a UUID")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second load returns the same identity, not a fresh one.
	second, err := LoadOrCreateIdentity(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrCreateIdentity_FillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"instanceId":"11111111-2222-3333-4444-555555555555"}`), 0600))

	id, err := LoadOrCreateIdentity(path)
	require.NoError(t, err)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", id.InstanceID, "existing values are kept")
	require.NotEmpty(t, id.SecretKey, "missing secret is generated in place")
}
