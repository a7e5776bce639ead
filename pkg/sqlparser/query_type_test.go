package sqlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckQueryIsReadOnly(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		syntax       string
		wantReadOnly bool
		wantType     string
		wantError    []string
	}{
		{
			name:         "simple select",
			query:        "SELECT * FROM users",
			wantReadOnly: true,
			wantType:     "select",
		},
		{
			name:         "select with CTE",
			query:        "WITH active AS (SELECT id FROM users WHERE active) SELECT * FROM active",
			wantReadOnly: true,
			wantType:     "select",
		},
		{
			name:         "multiple selects",
			query:        "SELECT 1; SELECT id FROM users",
			wantReadOnly: true,
			wantType:     "select",
		},
		{
			name:         "insert",
			query:        "INSERT INTO users (name) VALUES ('test')",
			wantReadOnly: false,
			wantType:     "insert",
			wantError: []string{
				"Query type 'INSERT' is not allowed",
				"Only SELECT statements are permitted for read-only access.",
				"To read data, use SELECT statements instead of INSERT",
			},
		},
		{
			name:         "update",
			query:        "UPDATE users SET name = 'x' WHERE id = 1",
			wantReadOnly: false,
			wantType:     "update",
			wantError:    []string{"Query type 'UPDATE' is not allowed"},
		},
		{
			name:         "delete",
			query:        "DELETE FROM users WHERE id = 1",
			wantReadOnly: false,
			wantType:     "delete",
			wantError:    []string{"Query type 'DELETE' is not allowed"},
		},
		{
			name:         "create table",
			query:        "CREATE TABLE users (id INT)",
			wantReadOnly: false,
			wantType:     "create",
			wantError: []string{
				"Query type 'CREATE' is not allowed",
				"DDL operations like CREATE are not permitted",
			},
		},
		{
			name:         "drop table",
			query:        "DROP TABLE users",
			wantReadOnly: false,
			wantType:     "drop",
			wantError:    []string{"DDL operations like DROP are not permitted"},
		},
		{
			name:         "alter table",
			query:        "ALTER TABLE users ADD COLUMN age INT",
			wantReadOnly: false,
			wantType:     "alter",
			wantError:    []string{"DDL operations like ALTER are not permitted"},
		},
		{
			name:         "truncate",
			query:        "TRUNCATE users",
			wantReadOnly: false,
			wantType:     "truncate",
			wantError:    []string{"DDL operations like TRUNCATE are not permitted"},
		},
		{
			name:         "write hidden in a batch",
			query:        "SELECT * FROM users; DROP TABLE users",
			wantReadOnly: false,
			wantType:     "drop",
		},
		{
			name:         "mysql insert",
			query:        "INSERT INTO `users` (`name`) VALUES ('x')",
			syntax:       "mysql",
			wantReadOnly: false,
			wantType:     "insert",
		},
		{
			name:         "mysql select",
			query:        "SELECT `name` FROM `users` LIMIT 10",
			syntax:       "mysql",
			wantReadOnly: true,
			wantType:     "select",
		},
		{
			name:         "malformed",
			query:        "SELEC * FORM users",
			wantReadOnly: false,
			wantError:    []string{"Failed to parse SQL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckQueryIsReadOnly(tt.query, tt.syntax)
			assert.Equal(t, tt.wantReadOnly, result.IsReadOnly)
			assert.Equal(t, tt.wantType, result.QueryType)
			for _, fragment := range tt.wantError {
				assert.Contains(t, result.Error, fragment)
			}
			if tt.wantReadOnly {
				assert.Empty(t, result.Error)
			}
		})
	}
}
