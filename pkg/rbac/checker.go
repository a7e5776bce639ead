// Package rbac checks query table and column accesses against a user's
// dataset permissions.
package rbac

import (
	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
	"github.com/wemcdonald/sqlaccess/pkg/types"
)

// PermissionChecker defines the interface for checking permissions.
// Checks run at two levels:
// - Table level: every stored table must match a permission entry
// - Column level: columns of matched tables must be in the entry's allowlist
type PermissionChecker interface {
	// MatchTables pairs each table with its permission entry. Tables with
	// no entry are returned by full name.
	MatchTables(tables []sqlparser.TableReference) (granted []TableGrant, unauthorized []string)

	// CheckColumns returns the column accesses no permission entry allows.
	CheckColumns(accesses []sqlparser.ColumnAccess) []types.UnauthorizedColumn
}
