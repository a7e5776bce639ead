package sqlparser

import (
	"errors"
	"io"
	"strings"

	"github.com/xwb1989/sqlparser"
)

func parseMySQL(sql string) ([]*Statement, error) {
	tokens := sqlparser.NewStringTokenizer(sql)
	var stmts []*Statement
	for {
		ast, err := sqlparser.ParseNext(tokens)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, lowerMySQL(ast))
	}
	return stmts, nil
}

// getStatementType returns the statement keyword for a MySQL AST.
func getStatementType(ast sqlparser.Statement) string {
	switch stmt := ast.(type) {
	case sqlparser.SelectStatement:
		return "select"
	case *sqlparser.Stream:
		return "stream"
	case *sqlparser.Insert:
		return strings.ToLower(stmt.Action)
	case *sqlparser.Update:
		return "update"
	case *sqlparser.Delete:
		return "delete"
	case *sqlparser.DDL:
		if fields := strings.Fields(strings.ToLower(stmt.Action)); len(fields) > 0 {
			return fields[0]
		}
		return "ddl"
	case *sqlparser.DBDDL:
		return strings.ToLower(stmt.Action)
	case *sqlparser.Set:
		return "set"
	case *sqlparser.Show:
		return "show"
	case *sqlparser.Use:
		return "use"
	case *sqlparser.Begin:
		return "begin"
	case *sqlparser.Commit:
		return "commit"
	case *sqlparser.Rollback:
		return "rollback"
	case *sqlparser.OtherRead:
		return "explain"
	case *sqlparser.OtherAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

type mysqlLowerer struct {
	stmt *Statement
}

func lowerMySQL(ast sqlparser.Statement) *Statement {
	stmt := &Statement{
		Type: getStatementType(ast),
		CTEs: make(map[string]struct{}),
	}
	l := &mysqlLowerer{stmt: stmt}

	if sel, ok := ast.(sqlparser.SelectStatement); ok {
		stmt.Select = l.selectStatement(sel)
		return stmt
	}

	switch node := ast.(type) {
	case *sqlparser.Insert:
		l.tableName(node.Table)
	case *sqlparser.DDL:
		if !node.Table.IsEmpty() {
			l.tableName(node.Table)
		}
		if !node.NewName.IsEmpty() {
			l.tableName(node.NewName)
		}
	case *sqlparser.Stream:
		l.tableName(node.Table)
	}
	_ = sqlparser.Walk(func(n sqlparser.SQLNode) (bool, error) {
		switch x := n.(type) {
		case *sqlparser.AliasedTableExpr:
			if name, ok := x.Expr.(sqlparser.TableName); ok {
				l.tableName(name)
			}
		case *sqlparser.Subquery:
			l.selectStatement(x.Select)
			return false, nil
		}
		return true, nil
	}, ast)
	return stmt
}

func (l *mysqlLowerer) selectStatement(node sqlparser.SelectStatement) *Select {
	switch s := node.(type) {
	case *sqlparser.Select:
		return l.selectBlock(s)
	case *sqlparser.ParenSelect:
		return l.selectStatement(s.Select)
	case *sqlparser.Union:
		sel := &Select{}
		for _, side := range []sqlparser.SelectStatement{s.Left, s.Right} {
			branch := l.selectStatement(side)
			if len(branch.Branches) > 0 {
				sel.Branches = append(sel.Branches, branch.Branches...)
			} else {
				sel.Branches = append(sel.Branches, branch)
			}
		}
		outputOnly := &Select{}
		for _, order := range s.OrderBy {
			l.expr(order.Expr, outputOnly, ClauseOrderBy)
		}
		sel.Subqueries = outputOnly.Subqueries
		return sel
	}
	return &Select{}
}

func (l *mysqlLowerer) selectBlock(s *sqlparser.Select) *Select {
	sel := &Select{}
	for _, te := range s.From {
		l.tableExpr(te, sel)
	}
	for _, se := range s.SelectExprs {
		switch e := se.(type) {
		case *sqlparser.StarExpr:
			sel.Targets = append(sel.Targets, Target{Star: true, StarQualifier: tableNameString(e.TableName)})
		case *sqlparser.AliasedExpr:
			t := Target{Name: e.As.String(), Aliased: !e.As.IsEmpty()}
			if col, ok := e.Expr.(*sqlparser.ColName); ok && !t.Aliased {
				t.Name = col.Name.String()
			}
			sel.Targets = append(sel.Targets, t)
			l.expr(e.Expr, sel, ClauseSelect)
		}
	}
	if s.Where != nil {
		l.expr(s.Where.Expr, sel, ClauseWhere)
	}
	for _, group := range s.GroupBy {
		l.expr(group, sel, ClauseGroupBy)
	}
	if s.Having != nil {
		l.expr(s.Having.Expr, sel, ClauseHaving)
	}
	for _, order := range s.OrderBy {
		l.expr(order.Expr, sel, ClauseOrderBy)
	}
	if s.Limit != nil {
		l.expr(s.Limit.Offset, sel, ClauseOther)
		l.expr(s.Limit.Rowcount, sel, ClauseOther)
	}
	return sel
}

func (l *mysqlLowerer) tableExpr(te sqlparser.TableExpr, sel *Select) {
	switch t := te.(type) {
	case *sqlparser.AliasedTableExpr:
		switch e := t.Expr.(type) {
		case sqlparser.TableName:
			ref := l.tableName(e)
			ref.Alias = t.As.String()
			sel.Sources = append(sel.Sources, &Source{Table: &ref, Alias: ref.Alias})
		case *sqlparser.Subquery:
			sel.Sources = append(sel.Sources, &Source{
				Subquery: l.selectStatement(e.Select),
				Alias:    t.As.String(),
			})
		}
	case *sqlparser.ParenTableExpr:
		for _, inner := range t.Exprs {
			l.tableExpr(inner, sel)
		}
	case *sqlparser.JoinTableExpr:
		l.tableExpr(t.LeftExpr, sel)
		l.tableExpr(t.RightExpr, sel)
		for _, col := range t.Condition.Using {
			sel.Columns = append(sel.Columns, ColumnRef{Name: col.String(), Clause: ClauseJoin})
		}
		l.expr(t.Condition.On, sel, ClauseJoin)
	}
}

func (l *mysqlLowerer) tableName(name sqlparser.TableName) TableReference {
	var qualifier []string
	if !name.Qualifier.IsEmpty() {
		qualifier = []string{name.Qualifier.String()}
	}
	token := encodeTableToken(l.stmt.Type, qualifier, name.Name.String())
	l.stmt.Tables = append(l.stmt.Tables, token)
	return ParseTableReference(token)
}

// expr records the column references and subqueries of an expression.
func (l *mysqlLowerer) expr(e sqlparser.Expr, sel *Select, clause Clause) {
	if e == nil {
		return
	}
	_ = sqlparser.Walk(func(n sqlparser.SQLNode) (bool, error) {
		switch x := n.(type) {
		case *sqlparser.ColName:
			sel.Columns = append(sel.Columns, ColumnRef{
				Qualifier: tableNameString(x.Qualifier),
				Name:      x.Name.String(),
				Clause:    clause,
			})
			return false, nil
		case *sqlparser.Subquery:
			sel.Subqueries = append(sel.Subqueries, l.selectStatement(x.Select))
			return false, nil
		}
		return true, nil
	}, e)
}

func tableNameString(name sqlparser.TableName) string {
	if name.IsEmpty() {
		return ""
	}
	if name.Qualifier.IsEmpty() {
		return name.Name.String()
	}
	return name.Qualifier.String() + "." + name.Name.String()
}
