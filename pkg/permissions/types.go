package permissions

import (
	"strings"

	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
)

// WildcardPermission marks a document model with no column restriction.
const WildcardPermission = "*"

// PermissionEntry grants access to one table, optionally restricted to an
// allowlist of columns. An empty allowlist allows every column.
type PermissionEntry struct {
	sqlparser.TableReference `yaml:",inline"`

	// Columns are lower-cased.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// HasColumnRestrictions reports whether the entry carries an allowlist.
func (e PermissionEntry) HasColumnRestrictions() bool {
	return len(e.Columns) > 0
}

// Allows reports whether column may be read through this entry.
func (e PermissionEntry) Allows(column string) bool {
	if !e.HasColumnRestrictions() {
		return true
	}
	column = strings.ToLower(column)
	for _, c := range e.Columns {
		if c == column || c == WildcardPermission {
			return true
		}
	}
	return false
}

// Dataset is one permission document granted to a user.
type Dataset struct {
	Name       string `json:"name,omitempty"`
	YMLContent string `json:"ymlContent"`
}

// DatasetPage is one page of a user's permissioned datasets.
type DatasetPage struct {
	Datasets []Dataset `json:"datasets"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}
