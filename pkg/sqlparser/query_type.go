package sqlparser

import (
	"fmt"
	"strings"
)

// CheckQueryIsReadOnly parses sql and accepts it only when every statement in
// the batch is a SELECT.
func CheckQueryIsReadOnly(sql, dataSourceSyntax string) QueryTypeResult {
	analysis, err := Analyze(sql, dataSourceSyntax)
	if err != nil {
		return QueryTypeResult{
			IsReadOnly: false,
			Error:      fmt.Sprintf("Failed to parse SQL: %s", causeOf(err)),
		}
	}
	return analysis.QueryType()
}

// QueryType reports the first non-SELECT statement of the batch, if any.
func (a *Analysis) QueryType() QueryTypeResult {
	for _, stmt := range a.Statements {
		if stmt.Kind() == StatementSelect {
			continue
		}
		return QueryTypeResult{
			IsReadOnly: false,
			QueryType:  stmt.Type,
			Error:      rejectionMessage(stmt),
		}
	}
	return QueryTypeResult{IsReadOnly: true, QueryType: "select"}
}

func rejectionMessage(stmt *Statement) string {
	typ := strings.ToUpper(stmt.Type)
	msg := fmt.Sprintf("Query type '%s' is not allowed. Only SELECT statements are permitted for read-only access.", typ)
	switch kind := stmt.Kind(); {
	case kind.IsDDL():
		msg += fmt.Sprintf(" DDL operations like %s are not permitted.", typ)
	case kind.IsDML():
		msg += fmt.Sprintf(" To read data, use SELECT statements instead of %s.", typ)
	}
	return msg
}
