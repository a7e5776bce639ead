package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wemcdonald/sqlaccess/internal/cli"
	"github.com/wemcdonald/sqlaccess/pkg/types"
)

const aliceDataset = `
name: employees
schema: hr
dimensions:
  - name: id
  - name: name
`

// run executes the CLI with args from an isolated working directory.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), err
}

func permissionsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "alice"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice", "hr.yml"), []byte(aliceDataset), 0o644))
	return dir
}

func TestTablesCommand(t *testing.T) {
	out, err := run(t, "", "tables", "--sql", "WITH t AS (SELECT id FROM orders) SELECT * FROM t JOIN hr.users u ON u.id = t.id")
	require.NoError(t, err)

	var tables []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &tables))
	require.Len(t, tables, 2)
	assert.Equal(t, "orders", tables[0]["fullName"])
	assert.Equal(t, "hr.users", tables[1]["fullName"])
}

func TestCheckCommandFromStdin(t *testing.T) {
	out, err := run(t, "DROP TABLE users", "check", "--sql", "")
	assert.Equal(t, cli.ExitGeneral, cli.ExitCode(err))
	assert.Contains(t, out, `"isReadOnly": false`)
	assert.Contains(t, out, `"queryType": "drop"`)
}

func TestTablesCommandParseError(t *testing.T) {
	_, err := run(t, "", "tables", "--sql", "SELECT * FROM")
	assert.Equal(t, cli.ExitParse, cli.ExitCode(err))
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("SQLACCESS_STORE_PERMISSIONS_DIR", permissionsDir(t))

	out, err := run(t, "", "validate", "--user", "alice", "--sql", "SELECT id, name FROM hr.employees")
	require.NoError(t, err)
	var result types.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.IsAuthorized)

	out, err = run(t, "", "validate", "--user", "alice", "--sql", "SELECT salary FROM hr.employees")
	assert.Equal(t, cli.ExitGeneral, cli.ExitCode(err))
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.IsAuthorized)
	assert.Equal(t, []types.UnauthorizedColumn{{Table: "hr.employees", Column: "salary"}}, result.UnauthorizedColumns)

	_, err = run(t, "", "validate", "--user", "alice", "--sql", "SELEC 1 FROM")
	assert.Equal(t, cli.ExitParse, cli.ExitCode(err))
}

func TestGrantAndRevokeCommands(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "hr.yml")
	require.NoError(t, os.WriteFile(doc, []byte(aliceDataset), 0o644))
	t.Setenv("SQLACCESS_STORE_DRIVER", "sqlite3")
	t.Setenv("SQLACCESS_STORE_DSN", "file:"+filepath.Join(dir, "grants.db"))

	out, err := run(t, "", "grant", "alice", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Granted hr to alice")

	out, err = run(t, "", "validate", "--user", "alice", "--sql", "SELECT id FROM hr.employees")
	require.NoError(t, err, out)

	out, err = run(t, "", "revoke", "alice", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "Revoked hr from alice")

	_, err = run(t, "", "revoke", "alice", "hr")
	assert.Equal(t, cli.ExitGeneral, cli.ExitCode(err))
}

func TestConfigShowCommand(t *testing.T) {
	out, err := run(t, "", "config", "show", "--source")
	require.NoError(t, err)
	assert.Contains(t, out, "Config file: (none, using defaults)")
	assert.Contains(t, out, "dialect: postgresql")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sqlaccess "))
}
