package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bptreeidx.yaml")
	yaml := `
storage:
  dir: ` + dir + `
index:
  relation_name: users
  attr_byte_offset: 1
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, dir, cfg.Storage.Dir)
	require.Equal(t, "heap", cfg.Storage.HeapBase, "default heap_base should apply")
	require.Equal(t, "idx", cfg.Storage.IndexBase, "default index_base should apply")
	require.Equal(t, 64, cfg.Storage.BufferCapacity, "default buffer_capacity should apply")
	require.Equal(t, "users", cfg.Index.RelationName)
	require.Equal(t, 1, cfg.Index.AttrByteOffset)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
