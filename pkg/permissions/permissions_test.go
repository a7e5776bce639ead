package permissions

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
)

const flatDoc = `
name: employees
schema: hr
database: warehouse
dimensions:
  - name: id
  - name: Name
  - name: department_id
measures:
  - name: headcount
`

const modelsDoc = `
models:
  - name: users
    schema: public
  - name: orders
    schema: public
    database: shop
  - name: orphan
`

func TestLoadEntriesFlat(t *testing.T) {
	entries := LoadEntries(flatDoc)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "warehouse.hr.employees", e.FullName)
	assert.Equal(t, []string{"id", "name", "department_id", "headcount"}, e.Columns)
	assert.True(t, e.HasColumnRestrictions())
	assert.True(t, e.Allows("NAME"))
	assert.False(t, e.Allows("salary"))
}

func TestLoadEntriesModels(t *testing.T) {
	entries := LoadEntries(modelsDoc)
	require.Len(t, entries, 2)
	assert.Equal(t, "public.users", entries[0].FullName)
	assert.Equal(t, "shop.public.orders", entries[1].FullName)
	for _, e := range entries {
		assert.False(t, e.HasColumnRestrictions())
		assert.True(t, e.Allows("anything"))
	}
}

func TestLoadEntriesEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		docs []string
		want int
	}{
		{name: "empty", docs: []string{""}, want: 0},
		{name: "flat without qualifier", docs: []string{"name: users\ndimensions:\n  - name: id\n"}, want: 0},
		{name: "malformed", docs: []string{"models: [name: users"}, want: 0},
		{name: "malformed does not poison others", docs: []string{"{{{", modelsDoc}, want: 2},
		{name: "duplicates merge", docs: []string{modelsDoc, modelsDoc}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, LoadEntries(tt.docs...), tt.want)
		})
	}
}

func TestLoadEntriesFieldShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "bare names",
			doc:  "name: employees\nschema: hr\ndimensions: [id, Name]\n",
			want: []string{"id", "name"},
		},
		{
			name: "mixed items",
			doc:  "name: employees\nschema: hr\ndimensions:\n  - name: id\n  - name\nmeasures:\n  - headcount\n",
			want: []string{"id", "name", "headcount"},
		},
		{
			name: "bad items are skipped",
			doc:  "name: employees\nschema: hr\ndimensions:\n  - name: id\n  - name: [x]\n  - label: bonus\n  - 42\n  - [nested]\n",
			want: []string{"id"},
		},
		{
			name: "scalar list is ignored",
			doc:  "name: employees\nschema: hr\ndimensions: id\nmeasures:\n  - name: headcount\n",
			want: []string{"headcount"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := LoadEntries(tt.doc)
			require.Len(t, entries, 1)
			assert.Equal(t, "hr.employees", entries[0].FullName)
			assert.Equal(t, tt.want, entries[0].Columns)
		})
	}
}

func TestLoadEntriesSkipsBadModels(t *testing.T) {
	entries := LoadEntries("models:\n  - users\n  - name: orders\n    schema: public\n  - [x]\n")
	require.Len(t, entries, 1)
	assert.Equal(t, "public.orders", entries[0].FullName)
}

func TestLoadEntriesRestrictedWins(t *testing.T) {
	unrestricted := "models:\n  - name: employees\n    schema: hr\n"
	restricted := "name: EMPLOYEES\nschema: HR\ndimensions:\n  - name: id\n"

	for _, docs := range [][]string{{unrestricted, restricted}, {restricted, unrestricted}} {
		entries := LoadEntries(docs...)
		require.Len(t, entries, 1)
		assert.Equal(t, []string{"id"}, entries[0].Columns)
	}
}

func TestLoaderLogsMalformedDocuments(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	entries := NewLoader(logger).Load("models: [")
	assert.Empty(t, entries)
	assert.Contains(t, buf.String(), "skipping malformed permission document")
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestExtractFromYml(t *testing.T) {
	tables := ExtractTablesFromYml(modelsDoc)
	assert.Equal(t, []sqlparser.TableReference{
		{Schema: "public", Table: "users", FullName: "public.users"},
		{Database: "shop", Schema: "public", Table: "orders", FullName: "shop.public.orders"},
	}, tables)

	datasets := ExtractDatasetsFromYml(flatDoc)
	require.Len(t, datasets, 1)
	assert.Len(t, datasets[0].Columns, 4)
}

func TestTablesMatch(t *testing.T) {
	ref := sqlparser.ParseTableReference
	tests := []struct {
		name       string
		query      string
		permission string
		want       bool
	}{
		{"identical", "users", "users", true},
		{"case insensitive", "Public.USERS", "public.users", true},
		{"different table", "users", "orders", false},
		{"permission schema required", "users", "public.users", false},
		{"query schema without permission schema", "public.users", "users", true},
		{"schema mismatch", "sales.users", "public.users", false},
		{"query without database", "public.users", "warehouse.public.users", true},
		{"permission without database", "warehouse.public.users", "public.users", true},
		{"database mismatch", "a.public.users", "b.public.users", false},
		{"database match", "A.public.users", "a.PUBLIC.users", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TablesMatch(ref(tt.query), ref(tt.permission)))
		})
	}
}

func TestTablesMatchReflexive(t *testing.T) {
	for _, token := range []string{"users", "Public.Users", "DB.public.USERS", `"my schema"."t"`} {
		r := sqlparser.ParseTableReference(token)
		assert.True(t, TablesMatch(r, r), token)
	}
}

func TestFindMatch(t *testing.T) {
	entries := LoadEntries(modelsDoc, flatDoc)

	got, ok := FindMatch(sqlparser.ParseTableReference("shop.public.orders"), entries)
	require.True(t, ok)
	assert.Equal(t, "shop.public.orders", got.FullName)

	got, ok = FindMatch(sqlparser.ParseTableReference("hr.employees"), entries)
	require.True(t, ok)
	assert.True(t, got.HasColumnRestrictions())

	_, ok = FindMatch(sqlparser.ParseTableReference("users"), entries)
	assert.False(t, ok, "unqualified query table must not match a schema-qualified grant")
}
