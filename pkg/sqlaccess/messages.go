package sqlaccess

import (
	"fmt"
	"strings"

	"github.com/wemcdonald/sqlaccess/pkg/types"
)

// BuildPermissionErrorMessage describes the tables and columns a user may
// not read. It returns "" when both are empty.
func BuildPermissionErrorMessage(tables []string, columns []types.UnauthorizedColumn) string {
	var sections []string

	switch len(tables) {
	case 0:
	case 1:
		sections = append(sections, fmt.Sprintf(
			"You do not have access to table: %s. Please request access to this table or use a different table that you have permissions for.",
			tables[0]))
	default:
		sections = append(sections, fmt.Sprintf(
			"You do not have access to the following tables: %s. Please request access to these tables or modify your query to use only authorized tables.",
			strings.Join(tables, ", ")))
	}

	if len(columns) > 0 {
		var order []string
		byTable := make(map[string][]string)
		for _, c := range columns {
			if _, ok := byTable[c.Table]; !ok {
				order = append(order, c.Table)
			}
			byTable[c.Table] = append(byTable[c.Table], c.Column)
		}
		groups := make([]string, 0, len(order))
		for _, table := range order {
			groups = append(groups, fmt.Sprintf(
				"Table '%s': columns [%s] are not available in the permitted dataset",
				table, strings.Join(byTable[table], ", ")))
		}
		sections = append(sections, "Unauthorized column access: "+strings.Join(groups, "; "))
	}

	return strings.Join(sections, " ")
}
