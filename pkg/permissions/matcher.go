package permissions

import (
	"strings"

	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
)

// TablesMatch reports whether a table named in a query is covered by a
// permission's table. Table names must agree. A permission schema must be
// present and equal in the query. Databases are compared only when both
// sides carry one.
func TablesMatch(query, permission sqlparser.TableReference) bool {
	if !strings.EqualFold(query.Table, permission.Table) {
		return false
	}
	if permission.Schema != "" && !strings.EqualFold(query.Schema, permission.Schema) {
		return false
	}
	if query.Database != "" && permission.Database != "" &&
		!strings.EqualFold(query.Database, permission.Database) {
		return false
	}
	return true
}

// FindMatch returns the first entry covering query.
func FindMatch(query sqlparser.TableReference, entries []PermissionEntry) (*PermissionEntry, bool) {
	for i := range entries {
		if TablesMatch(query, entries[i].TableReference) {
			return &entries[i], true
		}
	}
	return nil, false
}
