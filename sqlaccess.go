// Package sqlaccess validates SQL queries against per-user dataset permissions.
package sqlaccess

import (
	"context"

	"github.com/wemcdonald/sqlaccess/pkg/auth"
	"github.com/wemcdonald/sqlaccess/pkg/sqlaccess"
	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
	"github.com/wemcdonald/sqlaccess/pkg/types"
)

// New creates a validator reading permissions from store
func New(store auth.DatasetStore, opts Options) *Validator {
	return sqlaccess.New(store, opts)
}

// Validate runs a one-off validation with default options.
func Validate(ctx context.Context, store auth.DatasetStore, sql, userID, dataSourceSyntax string) ValidationResult {
	return sqlaccess.New(store, Options{}).Validate(ctx, sql, userID, dataSourceSyntax)
}

// CheckQueryIsReadOnly reports whether every statement of sql is a SELECT.
func CheckQueryIsReadOnly(sql, dataSourceSyntax string) sqlparser.QueryTypeResult {
	return sqlparser.CheckQueryIsReadOnly(sql, dataSourceSyntax)
}

// ExtractPhysicalTables returns the stored tables sql reads.
func ExtractPhysicalTables(sql, dataSourceSyntax string) ([]sqlparser.TableReference, error) {
	return sqlparser.ExtractPhysicalTables(sql, dataSourceSyntax)
}

// Re-export types for convenience
type (
	Validator          = sqlaccess.Validator
	Options            = sqlaccess.Options
	ValidationError    = sqlaccess.ValidationError
	ValidationResult   = types.ValidationResult
	UnauthorizedColumn = types.UnauthorizedColumn
)
