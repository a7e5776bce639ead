package sqlparser

import "strings"

// StatementType represents the category of a SQL statement
type StatementType int

const (
	StatementUnknown StatementType = iota
	StatementSelect
	StatementInsert
	StatementUpdate
	StatementDelete
	StatementCreate
	StatementAlter
	StatementDrop
	StatementOther
)

// String implements the Stringer interface for StatementType
func (s StatementType) String() string {
	switch s {
	case StatementSelect:
		return "SELECT"
	case StatementInsert:
		return "INSERT"
	case StatementUpdate:
		return "UPDATE"
	case StatementDelete:
		return "DELETE"
	case StatementCreate:
		return "CREATE"
	case StatementAlter:
		return "ALTER"
	case StatementDrop:
		return "DROP"
	case StatementOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// IsDDL reports whether the statement changes schema objects.
func (s StatementType) IsDDL() bool {
	return s == StatementCreate || s == StatementAlter || s == StatementDrop
}

// IsDML reports whether the statement writes rows.
func (s StatementType) IsDML() bool {
	return s == StatementInsert || s == StatementUpdate || s == StatementDelete
}

// ClassifyStatement maps a lower-case statement keyword onto a StatementType.
func ClassifyStatement(keyword string) StatementType {
	switch strings.ToLower(keyword) {
	case "select":
		return StatementSelect
	case "insert", "replace", "merge":
		return StatementInsert
	case "update":
		return StatementUpdate
	case "delete":
		return StatementDelete
	case "create":
		return StatementCreate
	case "alter", "rename":
		return StatementAlter
	case "drop", "truncate":
		return StatementDrop
	case "":
		return StatementUnknown
	default:
		return StatementOther
	}
}

// TableReference is one occurrence of a table name, either taken from a query
// or declared by a permission document.
type TableReference struct {
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Schema   string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table    string `json:"table" yaml:"table"`
	FullName string `json:"fullName" yaml:"fullName"`
	Alias    string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// ColumnReference is a physical column access site attributed to a table.
type ColumnReference struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Clause identifies the part of a SELECT a column reference was found in.
type Clause int

const (
	ClauseSelect Clause = iota
	ClauseFrom
	ClauseJoin
	ClauseWhere
	ClauseGroupBy
	ClauseHaving
	ClauseOrderBy
	ClauseWindow
	ClauseOther
)

func (c Clause) String() string {
	switch c {
	case ClauseSelect:
		return "select"
	case ClauseFrom:
		return "from"
	case ClauseJoin:
		return "join"
	case ClauseWhere:
		return "where"
	case ClauseGroupBy:
		return "group by"
	case ClauseHaving:
		return "having"
	case ClauseOrderBy:
		return "order by"
	case ClauseWindow:
		return "window"
	default:
		return "other"
	}
}

// acceptsOutputAlias reports whether an unqualified name in this clause may
// refer to a select-list alias instead of a source column.
func (c Clause) acceptsOutputAlias() bool {
	return c == ClauseGroupBy || c == ClauseHaving || c == ClauseOrderBy
}

// Statement is the grammar-neutral form of one parsed SQL statement.
type Statement struct {
	// Type is the lower-case statement keyword, e.g. "select" or "insert".
	Type string
	// Select is set only when Type is "select".
	Select *Select
	// Tables holds every table token the grammar surfaced, encoded as
	// "type::qualifier::table".
	Tables []string
	// CTEs holds every WITH name declared anywhere in the statement, lower-cased.
	CTEs map[string]struct{}
}

// Kind classifies the statement keyword.
func (s *Statement) Kind() StatementType {
	return ClassifyStatement(s.Type)
}

// Select is one query block. A set operation is represented by a Select
// whose Branches are populated and whose own FROM is empty.
type Select struct {
	With       []*CommonTable
	Sources    []*Source
	Targets    []Target
	Columns    []ColumnRef
	Subqueries []*Select
	Branches   []*Select
}

// CommonTable is a WITH clause entry.
type CommonTable struct {
	Name      string
	Columns   []string
	Query     *Select
	Recursive bool
}

// Source is one FROM item.
type Source struct {
	// Table is set for named relations, which may still be CTE references.
	Table *TableReference
	// Subquery is set for derived tables.
	Subquery *Select
	// Function marks table functions, whose columns are unknown.
	Function      bool
	Alias         string
	ColumnAliases []string
	Lateral       bool
}

// Target is one select-list item.
type Target struct {
	// Name is the output column name: the alias, or the bare column name.
	Name          string
	Aliased       bool
	Star          bool
	StarQualifier string
}

// ColumnRef is a column reference as written in the query.
type ColumnRef struct {
	Qualifier string
	Name      string
	Clause    Clause
}

// QueryTypeResult is the outcome of the read-only check.
type QueryTypeResult struct {
	IsReadOnly bool   `json:"isReadOnly"`
	QueryType  string `json:"queryType,omitempty"`
	Error      string `json:"error,omitempty"`
}

// WildcardResult is the outcome of the wildcard check.
type WildcardResult struct {
	IsValid       bool     `json:"isValid"`
	Error         string   `json:"error,omitempty"`
	BlockedTables []string `json:"blockedTables,omitempty"`
}
