package sqlparser

import (
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func parsePostgres(sql string) ([]*Statement, error) {
	tree, err := pgquery.Parse(sql)
	if err != nil {
		return nil, err
	}
	stmts := make([]*Statement, 0, len(tree.GetStmts()))
	for _, raw := range tree.GetStmts() {
		node := raw.GetStmt()
		if node.GetNode() == nil {
			continue
		}
		stmts = append(stmts, lowerPostgres(node))
	}
	return stmts, nil
}

// postgresStatementType derives the statement keyword from the name of the
// populated node variant, e.g. "insert_stmt" becomes "insert".
func postgresStatementType(node *pgquery.Node) string {
	m := node.ProtoReflect()
	oneof := m.Descriptor().Oneofs().ByName("node")
	if oneof == nil {
		return ""
	}
	field := m.WhichOneof(oneof)
	if field == nil {
		return ""
	}

	name := string(field.Name())
	switch name {
	case "select_stmt":
		if node.GetSelectStmt().GetIntoClause() != nil {
			return "create"
		}
		return "select"
	case "insert_stmt":
		return "insert"
	case "update_stmt":
		return "update"
	case "delete_stmt":
		return "delete"
	case "merge_stmt":
		return "merge"
	case "truncate_stmt":
		return "truncate"
	case "rename_stmt":
		return "rename"
	case "index_stmt", "view_stmt", "define_stmt", "createdb_stmt", "composite_type_stmt":
		return "create"
	}
	switch {
	case strings.HasPrefix(name, "create"):
		return "create"
	case strings.HasPrefix(name, "alter"):
		return "alter"
	case strings.HasPrefix(name, "drop"):
		return "drop"
	}
	return strings.ReplaceAll(strings.TrimSuffix(name, "_stmt"), "_", " ")
}

type pgLowerer struct {
	stmt *Statement
}

func lowerPostgres(node *pgquery.Node) *Statement {
	stmt := &Statement{
		Type: postgresStatementType(node),
		CTEs: make(map[string]struct{}),
	}
	l := &pgLowerer{stmt: stmt}
	if sel := node.GetSelectStmt(); sel != nil && stmt.Type == "select" {
		stmt.Select = l.selectStmt(sel)
		return stmt
	}
	// Everything else is only inspected for the relations it touches.
	l.walk(node.ProtoReflect(), nil, ClauseOther)
	return stmt
}

func (l *pgLowerer) selectStmt(s *pgquery.SelectStmt) *Select {
	sel := &Select{}
	if s == nil {
		return sel
	}
	if w := s.GetWithClause(); w != nil {
		sel.With = l.withClause(w)
	}

	if s.GetLarg() != nil || s.GetRarg() != nil {
		for _, side := range []*pgquery.SelectStmt{s.GetLarg(), s.GetRarg()} {
			if side == nil {
				continue
			}
			branch := l.selectStmt(side)
			if len(branch.Branches) > 0 && len(branch.With) == 0 {
				sel.Branches = append(sel.Branches, branch.Branches...)
			} else {
				sel.Branches = append(sel.Branches, branch)
			}
		}
		// ORDER BY on a set operation names output columns only.
		outputOnly := &Select{}
		l.walkNodes(s.GetSortClause(), outputOnly, ClauseOrderBy)
		sel.Subqueries = append(sel.Subqueries, outputOnly.Subqueries...)
		return sel
	}

	for _, item := range s.GetFromClause() {
		l.fromItem(item, sel)
	}
	for _, item := range s.GetTargetList() {
		l.target(item.GetResTarget(), sel)
	}
	l.walkNode(s.GetWhereClause(), sel, ClauseWhere)
	l.walkNodes(s.GetGroupClause(), sel, ClauseGroupBy)
	l.walkNode(s.GetHavingClause(), sel, ClauseHaving)
	l.walkNodes(s.GetWindowClause(), sel, ClauseWindow)
	l.walkNodes(s.GetSortClause(), sel, ClauseOrderBy)
	l.walkNodes(s.GetDistinctClause(), sel, ClauseSelect)
	l.walkNode(s.GetLimitCount(), sel, ClauseOther)
	l.walkNode(s.GetLimitOffset(), sel, ClauseOther)
	l.walkNodes(s.GetValuesLists(), sel, ClauseOther)
	return sel
}

func (l *pgLowerer) withClause(w *pgquery.WithClause) []*CommonTable {
	ctes := make([]*CommonTable, 0, len(w.GetCtes()))
	for _, item := range w.GetCtes() {
		cte := item.GetCommonTableExpr()
		if cte == nil {
			continue
		}
		l.stmt.CTEs[strings.ToLower(cte.GetCtename())] = struct{}{}

		ct := &CommonTable{
			Name:      cte.GetCtename(),
			Columns:   stringValues(cte.GetAliascolnames()),
			Recursive: w.GetRecursive(),
		}
		query := cte.GetCtequery()
		if body := query.GetSelectStmt(); body != nil {
			ct.Query = l.selectStmt(body)
		} else if query.GetNode() != nil {
			// A data-modifying CTE makes the whole statement a write.
			l.stmt.Type = postgresStatementType(query)
			l.walkNode(query, nil, ClauseOther)
		}
		ctes = append(ctes, ct)
	}
	return ctes
}

func (l *pgLowerer) target(rt *pgquery.ResTarget, sel *Select) {
	if rt == nil {
		return
	}
	t := Target{Name: rt.GetName(), Aliased: rt.GetName() != ""}
	if ref := rt.GetVal().GetColumnRef(); ref != nil {
		qualifier, name, star := columnRefParts(ref)
		if star {
			sel.Targets = append(sel.Targets, Target{Star: true, StarQualifier: qualifier})
			return
		}
		if !t.Aliased {
			t.Name = name
		}
	}
	sel.Targets = append(sel.Targets, t)
	l.walkNode(rt.GetVal(), sel, ClauseSelect)
}

func (l *pgLowerer) fromItem(item *pgquery.Node, sel *Select) {
	switch n := item.GetNode().(type) {
	case *pgquery.Node_RangeVar:
		ref := l.addTable(n.RangeVar)
		ref.Alias = n.RangeVar.GetAlias().GetAliasname()
		sel.Sources = append(sel.Sources, &Source{
			Table:         &ref,
			Alias:         ref.Alias,
			ColumnAliases: stringValues(n.RangeVar.GetAlias().GetColnames()),
		})
	case *pgquery.Node_JoinExpr:
		l.fromItem(n.JoinExpr.GetLarg(), sel)
		l.fromItem(n.JoinExpr.GetRarg(), sel)
		for _, name := range stringValues(n.JoinExpr.GetUsingClause()) {
			sel.Columns = append(sel.Columns, ColumnRef{Name: name, Clause: ClauseJoin})
		}
		l.walkNode(n.JoinExpr.GetQuals(), sel, ClauseJoin)
	case *pgquery.Node_RangeSubselect:
		rs := n.RangeSubselect
		src := &Source{
			Alias:         rs.GetAlias().GetAliasname(),
			ColumnAliases: stringValues(rs.GetAlias().GetColnames()),
			Lateral:       rs.GetLateral(),
		}
		if body := rs.GetSubquery().GetSelectStmt(); body != nil {
			src.Subquery = l.selectStmt(body)
		} else {
			src.Function = true
			l.walkNode(rs.GetSubquery(), sel, ClauseFrom)
		}
		sel.Sources = append(sel.Sources, src)
	case *pgquery.Node_RangeFunction:
		rf := n.RangeFunction
		sel.Sources = append(sel.Sources, &Source{
			Function:      true,
			Alias:         rf.GetAlias().GetAliasname(),
			ColumnAliases: stringValues(rf.GetAlias().GetColnames()),
			Lateral:       rf.GetLateral(),
		})
		l.walkNodes(rf.GetFunctions(), sel, ClauseFrom)
	default:
		l.walkNode(item, sel, ClauseFrom)
	}
}

func (l *pgLowerer) addTable(rv *pgquery.RangeVar) TableReference {
	var qualifier []string
	for _, part := range []string{rv.GetCatalogname(), rv.GetSchemaname()} {
		if part != "" {
			qualifier = append(qualifier, part)
		}
	}
	token := encodeTableToken(l.stmt.Type, qualifier, rv.GetRelname())
	l.stmt.Tables = append(l.stmt.Tables, token)
	return ParseTableReference(token)
}

func (l *pgLowerer) walkNode(node *pgquery.Node, sel *Select, clause Clause) {
	if node == nil {
		return
	}
	l.walk(node.ProtoReflect(), sel, clause)
}

func (l *pgLowerer) walkNodes(nodes []*pgquery.Node, sel *Select, clause Clause) {
	for _, node := range nodes {
		l.walkNode(node, sel, clause)
	}
}

// walk visits an expression tree generically. Column references are
// recorded on sel, nested SELECTs become subqueries of sel, and relations
// are recorded as table tokens. sel may be nil when only tables matter.
func (l *pgLowerer) walk(m protoreflect.Message, sel *Select, clause Clause) {
	if !m.IsValid() {
		return
	}
	switch n := m.Interface().(type) {
	case *pgquery.ColumnRef:
		if sel == nil {
			return
		}
		if qualifier, name, star := columnRefParts(n); !star && name != "" {
			sel.Columns = append(sel.Columns, ColumnRef{Qualifier: qualifier, Name: name, Clause: clause})
		}
		return
	case *pgquery.SelectStmt:
		sub := l.selectStmt(n)
		if sel != nil {
			sel.Subqueries = append(sel.Subqueries, sub)
		}
		return
	case *pgquery.RangeVar:
		l.addTable(n)
		return
	case *pgquery.WithClause:
		l.withClause(n)
		return
	}

	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.Message() == nil || fd.IsMap() {
			return true
		}
		if fd.IsList() {
			list := v.List()
			for i := 0; i < list.Len(); i++ {
				l.walk(list.Get(i).Message(), sel, clause)
			}
			return true
		}
		l.walk(v.Message(), sel, clause)
		return true
	})
}

// columnRefParts splits a column reference into its qualifier and column.
func columnRefParts(ref *pgquery.ColumnRef) (qualifier, name string, star bool) {
	parts := make([]string, 0, len(ref.GetFields()))
	for _, field := range ref.GetFields() {
		switch {
		case field.GetString_() != nil:
			parts = append(parts, field.GetString_().GetSval())
		case field.GetAStar() != nil:
			star = true
		}
	}
	if star {
		return strings.Join(parts, "."), "", true
	}
	if len(parts) == 0 {
		return "", "", false
	}
	return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1], false
}

func stringValues(nodes []*pgquery.Node) []string {
	var values []string
	for _, node := range nodes {
		if s := node.GetString_(); s != nil {
			values = append(values, s.GetSval())
		}
	}
	return values
}
