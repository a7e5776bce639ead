package sqlaccess

import (
	"context"

	"github.com/wemcdonald/sqlaccess/pkg/types"
)

// QueryValidator defines the interface for pre-execution query checks
type QueryValidator interface {
	// Validate returns the verdict on sql for a user
	Validate(ctx context.Context, sql, userID, dataSourceSyntax string) types.ValidationResult

	// Check returns the verdict and a *ValidationError when it is negative
	Check(ctx context.Context, sql, userID, dataSourceSyntax string) (types.ValidationResult, error)
}

var _ QueryValidator = (*Validator)(nil)
