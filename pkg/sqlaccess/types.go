package sqlaccess

import (
	"log/slog"

	"github.com/wemcdonald/sqlaccess/pkg/auth"
)

// Error codes carried by ValidationError and ValidationResult.Kind.
const (
	CodeSyntaxError            = "SYNTAX_ERROR"
	CodeWriteRejected          = "WRITE_REJECTED"
	CodeTableUnauthorized      = "TABLE_UNAUTHORIZED"
	CodeColumnUnauthorized     = "COLUMN_UNAUTHORIZED"
	CodePermissionStoreFailure = "PERMISSION_STORE_FAILURE"
	CodeWildcardRejected       = "WILDCARD_REJECTED"
)

// Options configures a Validator.
type Options struct {
	// PageSize is the page size used to read the permission store.
	PageSize int
	// BlockWildcards rejects SELECT * over stored tables.
	BlockWildcards bool
	Logger         *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = auth.DefaultPageSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ValidationError represents a rejected query
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
