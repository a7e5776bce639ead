package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wemcdonald/sqlaccess/pkg/auth"
)

// chdir switches to dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
}

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("dialect: mysql"), 0o644))

	path, err := findConfigFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, tmpFile, path)
}

func TestFindConfigFile_ExplicitPathNotFound(t *testing.T) {
	_, err := findConfigFile("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestFindConfigFile_AutoDiscovery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	configPath := filepath.Join(root, "sqlaccess.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("dialect: mysql"), 0o644))
	nested := filepath.Join(root, "deep", "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	path, err := findConfigFile("")
	require.NoError(t, err)

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedPath, _ := filepath.EvalSymlinks(configPath)
	actualPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expectedPath, actualPath)
}

func TestFindConfigFile_StopsAtGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sqlaccess.yaml"), []byte("dialect: mysql"), 0o644))
	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".git"), 0o755))
	chdir(t, project)

	path, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	chdir(t, root)

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "postgresql", cfg.Dialect)
	assert.Equal(t, auth.DefaultPageSize, cfg.PageSize)
	assert.False(t, cfg.BlockWildcards)
	assert.Equal(t, "WARN", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, auth.DefaultDatasetTable, cfg.Store.Table)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sqlaccess.yaml")
	content := `
dialect: mysql
page_size: 50
block_wildcards: true
store:
  driver: sqlite3
  dsn: file:grants.db
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	t.Setenv("SQLACCESS_PAGE_SIZE", "25")
	t.Setenv("SQLACCESS_LOG_LEVEL", "debug")

	cfg, path, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, path)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, 25, cfg.PageSize, "env overrides file")
	assert.True(t, cfg.BlockWildcards)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, "file:grants.db", cfg.Store.DSN)
}

func TestLoadConfig_Malformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sqlaccess.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("dialect: [mysql"), 0o644))

	_, _, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory from directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "alice"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "alice", "sales.yml"), []byte("models: []"), 0o644))

		cfg := &Config{Store: StoreConfig{Driver: "memory", PermissionsDir: dir}}
		store, closeStore, err := cfg.OpenStore(ctx)
		require.NoError(t, err)
		defer closeStore()

		page, err := store.FetchPermissionedDatasets(ctx, "alice", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "grants.db"))
		cfg := &Config{Store: StoreConfig{Driver: "sqlite3", DSN: dsn, Table: "grants"}}
		store, closeStore, err := cfg.OpenStore(ctx)
		require.NoError(t, err)
		defer closeStore()

		page, err := store.FetchPermissionedDatasets(ctx, "alice", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("sql store needs a dsn", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Driver: "pgx"}}
		_, _, err := cfg.OpenStore(ctx)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Driver: "redis"}}
		_, _, err := cfg.OpenStore(ctx)
		assert.Error(t, err)
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitConfig, ExitCode(ConfigError("loading configuration", errors.New("bad"))))
	assert.Equal(t, ExitParse, ExitCode(fmt.Errorf("wrapped: %w", ParseError("parse", nil))))
	assert.Equal(t, ExitStoreConnect, ExitCode(StoreError("store", nil)))
	assert.Equal(t, "store: down", StoreError("store", errors.New("down")).Error())
}
