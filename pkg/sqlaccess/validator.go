package sqlaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wemcdonald/sqlaccess/pkg/auth"
	"github.com/wemcdonald/sqlaccess/pkg/permissions"
	"github.com/wemcdonald/sqlaccess/pkg/rbac"
	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
	"github.com/wemcdonald/sqlaccess/pkg/types"
)

// Validator decides whether a user may run a query. It holds no per-call
// state and is safe for concurrent use.
type Validator struct {
	store  auth.DatasetStore
	loader *permissions.Loader
	opts   Options
}

// New creates a validator reading permissions from store.
func New(store auth.DatasetStore, opts Options) *Validator {
	opts = opts.withDefaults()
	return &Validator{
		store:  store,
		loader: permissions.NewLoader(opts.Logger),
		opts:   opts,
	}
}

// Validate checks sql for userID. Every failure is reported in the result.
func (v *Validator) Validate(ctx context.Context, sql, userID, dataSourceSyntax string) types.ValidationResult {
	result, _ := v.Check(ctx, sql, userID, dataSourceSyntax)
	return result
}

// Check is Validate for callers that want a Go error. The error is a
// *ValidationError whenever the query is not authorized.
func (v *Validator) Check(ctx context.Context, sql, userID, dataSourceSyntax string) (types.ValidationResult, error) {
	logger := v.opts.Logger.With(slog.String("user", userID))

	analysis, err := sqlparser.Analyze(sql, dataSourceSyntax)
	if err != nil {
		return reject(&ValidationError{
			Code:    CodeSyntaxError,
			Message: fmt.Sprintf("Failed to parse SQL: %s", parseCause(err)),
			Err:     err,
		})
	}

	if qt := analysis.QueryType(); !qt.IsReadOnly {
		logger.Debug("rejected write statement", slog.String("type", qt.QueryType))
		return reject(&ValidationError{Code: CodeWriteRejected, Message: qt.Error})
	}

	if v.opts.BlockWildcards {
		if wc := analysis.Wildcards(); !wc.IsValid {
			return reject(&ValidationError{Code: CodeWildcardRejected, Message: wc.Error})
		}
	}

	tables := analysis.PhysicalTables()
	if len(tables) == 0 {
		return types.Authorized(), nil
	}

	datasets, err := auth.FetchAll(ctx, v.store, userID, v.opts.PageSize)
	if err != nil {
		logger.Error("permission store failure", slog.String("error", err.Error()))
		return reject(&ValidationError{
			Code: CodePermissionStoreFailure,
			Message: fmt.Sprintf("Permission validation failed: %s. Please verify your SQL query syntax and ensure you have access to the requested resources.",
				err.Error()),
			Err: err,
		})
	}

	docs := make([]string, 0, len(datasets))
	for _, d := range datasets {
		docs = append(docs, d.YMLContent)
	}
	authorizer := rbac.NewAuthorizer(v.loader.Load(docs...))

	_, unauthorizedTables := authorizer.MatchTables(tables)
	unauthorizedColumns := authorizer.CheckColumns(analysis.ColumnAccesses())

	logger.Debug("validated query",
		slog.Int("tables", len(tables)),
		slog.Int("unauthorized_tables", len(unauthorizedTables)),
		slog.Int("unauthorized_columns", len(unauthorizedColumns)))

	if len(unauthorizedTables) == 0 && len(unauthorizedColumns) == 0 {
		return types.Authorized(), nil
	}

	code := CodeColumnUnauthorized
	if len(unauthorizedTables) > 0 {
		code = CodeTableUnauthorized
	}
	verr := &ValidationError{
		Code:    code,
		Message: BuildPermissionErrorMessage(unauthorizedTables, unauthorizedColumns),
	}
	return types.ValidationResult{
		IsAuthorized:        false,
		UnauthorizedTables:  unauthorizedTables,
		UnauthorizedColumns: unauthorizedColumns,
		Error:               verr.Message,
		Kind:                verr.Code,
	}, verr
}

func reject(verr *ValidationError) (types.ValidationResult, error) {
	return types.ValidationResult{
		IsAuthorized:       false,
		UnauthorizedTables: []string{},
		Error:              verr.Message,
		Kind:               verr.Code,
	}, verr
}

func parseCause(err error) string {
	var pe *sqlparser.ParseError
	if errors.As(err, &pe) {
		return pe.Cause()
	}
	return err.Error()
}
