package rbac

import (
	"strings"

	"github.com/wemcdonald/sqlaccess/pkg/permissions"
	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
	"github.com/wemcdonald/sqlaccess/pkg/types"
)

// TableGrant is a query table and the entry that grants it.
type TableGrant struct {
	Table sqlparser.TableReference
	Entry *permissions.PermissionEntry
}

// Authorizer implements PermissionChecker over one user's entries.
type Authorizer struct {
	entries []permissions.PermissionEntry
}

var _ PermissionChecker = (*Authorizer)(nil)

// NewAuthorizer creates an authorizer for the given entries
func NewAuthorizer(entries []permissions.PermissionEntry) *Authorizer {
	return &Authorizer{entries: entries}
}

// NewAuthorizerFromYml loads permission documents into an authorizer.
func NewAuthorizerFromYml(ymlContents ...string) *Authorizer {
	return NewAuthorizer(permissions.LoadEntries(ymlContents...))
}

// Entries returns the entries the authorizer checks against.
func (a *Authorizer) Entries() []permissions.PermissionEntry {
	return a.entries
}

// MatchTables implements PermissionChecker.
func (a *Authorizer) MatchTables(tables []sqlparser.TableReference) ([]TableGrant, []string) {
	granted := make([]TableGrant, 0, len(tables))
	unauthorized := []string{}
	for _, table := range tables {
		entry, ok := permissions.FindMatch(table, a.entries)
		if !ok {
			unauthorized = append(unauthorized, table.FullName)
			continue
		}
		granted = append(granted, TableGrant{Table: table, Entry: entry})
	}
	return granted, unauthorized
}

// CheckColumns implements PermissionChecker. Only candidates whose entry
// restricts columns decide an access: it is allowed when one of them lists
// the column and is otherwise reported against the first of them. An
// unrestricted candidate never clears a column on its own. Candidates with no
// entry at all are table violations and are not reported again here.
func (a *Authorizer) CheckColumns(accesses []sqlparser.ColumnAccess) []types.UnauthorizedColumn {
	var violations []types.UnauthorizedColumn
	seen := make(map[string]struct{})

	for _, access := range accesses {
		var restricted *permissions.PermissionEntry
		allowed := false
		for _, table := range access.Tables {
			entry, ok := permissions.FindMatch(table, a.entries)
			if !ok {
				continue
			}
			if !entry.HasColumnRestrictions() {
				continue
			}
			if entry.Allows(access.Column) {
				allowed = true
				break
			}
			if restricted == nil {
				restricted = entry
			}
		}
		if allowed || restricted == nil {
			continue
		}

		key := strings.ToLower(restricted.FullName) + "\x00" + strings.ToLower(access.Column)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		violations = append(violations, types.UnauthorizedColumn{
			Table:  restricted.FullName,
			Column: access.Column,
		})
	}
	return violations
}
