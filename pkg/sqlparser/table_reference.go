package sqlparser

import "strings"

var identifierQuotes = strings.NewReplacer(`"`, "", "'", "", "`", "", "[", "", "]", "")

var statementPrefixes = map[string]struct{}{
	"select": {},
	"insert": {},
	"update": {},
	"delete": {},
	"create": {},
	"drop":   {},
	"alter":  {},
}

// ParseTableReference turns a raw table token into a structured reference.
// Accepted forms are table, schema.table and database.schema.table, with any
// quoting style, plus the "type::qualifier::table" encoding used for table
// tokens.
func ParseTableReference(token string) TableReference {
	cleaned := identifierQuotes.Replace(token)

	path := cleaned
	if strings.Contains(path, "::") {
		segments := strings.Split(path, "::")
		if _, ok := statementPrefixes[strings.ToLower(segments[0])]; ok {
			segments = segments[1:]
		}
		path = strings.Join(segments, ".")
	}

	parts := make([]string, 0, 3)
	for _, part := range strings.Split(path, ".") {
		if part == "" || part == "null" {
			continue
		}
		parts = append(parts, part)
	}

	var ref TableReference
	switch len(parts) {
	case 1:
		ref.Table = parts[0]
	case 2:
		ref.Schema, ref.Table = parts[0], parts[1]
	case 3:
		ref.Database, ref.Schema, ref.Table = parts[0], parts[1], parts[2]
	default:
		ref.Table = cleaned
	}
	ref.FullName = joinSegments(ref.Database, ref.Schema, ref.Table)
	return ref
}

// NormalizeTableIdentifier returns the lower-cased, qualification-ordered key
// of a reference.
func NormalizeTableIdentifier(ref TableReference) string {
	return strings.ToLower(joinSegments(ref.Database, ref.Schema, ref.Table))
}

// NewTableReference builds a reference from already separated segments.
func NewTableReference(database, schema, table string) TableReference {
	return TableReference{
		Database: database,
		Schema:   schema,
		Table:    table,
		FullName: joinSegments(database, schema, table),
	}
}

// tableKey is the dedupe key of a reference.
type tableKey struct {
	database, schema, table string
}

func keyOf(ref TableReference) tableKey {
	return tableKey{
		database: strings.ToLower(ref.Database),
		schema:   strings.ToLower(ref.Schema),
		table:    strings.ToLower(ref.Table),
	}
}

func joinSegments(segments ...string) string {
	present := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			present = append(present, s)
		}
	}
	return strings.Join(present, ".")
}

// encodeTableToken produces the "type::qualifier::table" token for a relation.
func encodeTableToken(stmtType string, qualifier []string, table string) string {
	q := "null"
	if len(qualifier) > 0 {
		q = strings.Join(qualifier, ".")
	}
	if _, ok := statementPrefixes[stmtType]; !ok {
		return q + "::" + table
	}
	return stmtType + "::" + q + "::" + table
}
