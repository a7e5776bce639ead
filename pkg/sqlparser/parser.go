package sqlparser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when an empty query is provided
var ErrEmptyQuery = errors.New("empty query")

// ErrUnsupportedStatement is returned when a statement cannot be represented
var ErrUnsupportedStatement = errors.New("unsupported SQL statement")

// ParseError reports SQL that the dialect's grammar rejected.
type ParseError struct {
	Dialect Dialect
	SQL     string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s SQL: %v", e.Dialect, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Cause returns the grammar's own message.
func (e *ParseError) Cause() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Parse parses a semicolon-separated batch into grammar-neutral statements.
// Any failure is returned as a *ParseError.
func Parse(sql string, dialect Dialect) ([]*Statement, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, &ParseError{Dialect: dialect, SQL: sql, Err: ErrEmptyQuery}
	}

	var (
		stmts []*Statement
		err   error
	)
	switch dialect.grammar() {
	case grammarMySQL:
		stmts, err = parseMySQL(sql)
		if err != nil {
			// CTEs and window functions postdate the MySQL grammar.
			if pgStmts, pgErr := parsePostgres(sql); pgErr == nil {
				stmts, err = pgStmts, nil
			}
		}
	default:
		stmts, err = parsePostgres(sql)
	}
	if err != nil {
		return nil, &ParseError{Dialect: dialect, SQL: sql, Err: err}
	}
	if len(stmts) == 0 {
		return nil, &ParseError{Dialect: dialect, SQL: sql, Err: ErrEmptyQuery}
	}
	return stmts, nil
}

// Analysis is a parsed batch that the individual checks read from, so a
// query is parsed once per validation.
type Analysis struct {
	Dialect    Dialect
	Statements []*Statement
	ctes       map[string]struct{}
}

// Analyze parses sql under the dialect for a data source syntax tag.
func Analyze(sql, dataSourceSyntax string) (*Analysis, error) {
	dialect := ResolveDialect(dataSourceSyntax)
	stmts, err := Parse(sql, dialect)
	if err != nil {
		return nil, err
	}
	ctes := make(map[string]struct{})
	for _, stmt := range stmts {
		for name := range stmt.CTEs {
			ctes[name] = struct{}{}
		}
	}
	return &Analysis{Dialect: dialect, Statements: stmts, ctes: ctes}, nil
}

// IsCTE reports whether name is declared by a WITH clause anywhere in the batch.
func (a *Analysis) IsCTE(name string) bool {
	_, ok := a.ctes[strings.ToLower(name)]
	return ok
}

// isCTEReference reports whether a FROM relation names a CTE. Qualified
// names always refer to stored relations.
func (a *Analysis) isCTEReference(ref *TableReference) bool {
	if ref == nil || ref.Schema != "" || ref.Database != "" {
		return false
	}
	return a.IsCTE(ref.Table)
}

// derived reports whether a source's columns come from the query itself.
func (a *Analysis) derived(src *Source) bool {
	if src.Subquery != nil || src.Function || src.Table == nil {
		return true
	}
	return a.isCTEReference(src.Table)
}

// forEachSelect calls fn for sel and every query block nested in it.
func forEachSelect(sel *Select, fn func(*Select)) {
	if sel == nil {
		return
	}
	fn(sel)
	for _, cte := range sel.With {
		forEachSelect(cte.Query, fn)
	}
	for _, branch := range sel.Branches {
		forEachSelect(branch, fn)
	}
	for _, src := range sel.Sources {
		forEachSelect(src.Subquery, fn)
	}
	for _, sub := range sel.Subqueries {
		forEachSelect(sub, fn)
	}
}

func causeOf(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Cause()
	}
	return err.Error()
}
