package sqlparser

import "strings"

// ColumnAccess is a column reference resolved against the FROM scopes it
// appears in.
type ColumnAccess struct {
	// Column is the lower-cased column name.
	Column string
	// Tables are the stored tables that may own the column, in FROM order.
	// Qualified references have exactly one; the first is the attributed owner.
	Tables []TableReference
	Clause Clause
}

// Reference attributes the access to its first candidate table.
func (c ColumnAccess) Reference() ColumnReference {
	return ColumnReference{Table: c.Tables[0].FullName, Column: c.Column}
}

// ResolveColumnAccesses returns every stored-table column access in a query.
func ResolveColumnAccesses(sql, dataSourceSyntax string) ([]ColumnAccess, error) {
	analysis, err := Analyze(sql, dataSourceSyntax)
	if err != nil {
		return nil, err
	}
	return analysis.ColumnAccesses(), nil
}

// ExtractColumnReferences groups the columns of a query by the full name of
// the table each one is attributed to.
func ExtractColumnReferences(sql, dataSourceSyntax string) (map[string][]string, error) {
	accesses, err := ResolveColumnAccesses(sql, dataSourceSyntax)
	if err != nil {
		return nil, err
	}

	refs := make(map[string][]string)
	seen := make(map[ColumnReference]struct{})
	for _, access := range accesses {
		ref := access.Reference()
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs[ref.Table] = append(refs[ref.Table], ref.Column)
	}
	return refs, nil
}

// ColumnAccesses resolves the column references of every SELECT in the batch.
func (a *Analysis) ColumnAccesses() []ColumnAccess {
	r := &resolver{analysis: a}
	for _, stmt := range a.Statements {
		if stmt.Select != nil {
			r.visit(stmt.Select, nil)
		}
	}
	return r.accesses
}

type scope struct {
	parent  *scope
	sources []*Source
	ctes    map[string]*CommonTable
	aliases map[string]struct{}
}

func (s *scope) cte(name string) *CommonTable {
	name = strings.ToLower(name)
	for sc := s; sc != nil; sc = sc.parent {
		if cte, ok := sc.ctes[name]; ok {
			return cte
		}
	}
	return nil
}

// lookup finds the source a qualifier names: an alias first, then a bare or
// qualified table name.
func (s *scope) lookup(qualifier string) *Source {
	q := strings.ToLower(qualifier)
	for _, src := range s.sources {
		if src.Alias != "" && strings.ToLower(src.Alias) == q {
			return src
		}
	}
	for _, src := range s.sources {
		if src.Table == nil {
			continue
		}
		if strings.ToLower(src.Table.Table) == q || strings.ToLower(src.Table.FullName) == q {
			return src
		}
		if src.Table.Schema != "" && strings.ToLower(src.Table.Schema+"."+src.Table.Table) == q {
			return src
		}
	}
	return nil
}

type resolver struct {
	analysis *Analysis
	accesses []ColumnAccess
}

func (r *resolver) visit(sel *Select, parent *scope) {
	if sel == nil {
		return
	}
	s := &scope{
		parent:  parent,
		ctes:    make(map[string]*CommonTable, len(sel.With)),
		aliases: make(map[string]struct{}),
	}
	for _, cte := range sel.With {
		s.ctes[strings.ToLower(cte.Name)] = cte
	}

	// CTE bodies, set-operation branches and plain derived tables see the
	// block's CTEs and the enclosing scopes, never the block's own FROM.
	outer := &scope{parent: parent, ctes: s.ctes}
	for _, cte := range sel.With {
		r.visit(cte.Query, outer)
	}
	if len(sel.Branches) > 0 {
		for _, branch := range sel.Branches {
			r.visit(branch, outer)
		}
		for _, sub := range sel.Subqueries {
			r.visit(sub, outer)
		}
		return
	}

	s.sources = sel.Sources
	for _, t := range sel.Targets {
		if t.Aliased {
			s.aliases[strings.ToLower(t.Name)] = struct{}{}
		}
	}
	for _, src := range sel.Sources {
		if src.Subquery == nil {
			continue
		}
		if src.Lateral {
			r.visit(src.Subquery, s)
		} else {
			r.visit(src.Subquery, outer)
		}
	}
	for _, col := range sel.Columns {
		r.resolve(col, s)
	}
	for _, sub := range sel.Subqueries {
		r.visit(sub, s)
	}
}

func (r *resolver) resolve(col ColumnRef, s *scope) {
	name := strings.ToLower(col.Name)

	if col.Qualifier != "" {
		for sc := s; sc != nil; sc = sc.parent {
			src := sc.lookup(col.Qualifier)
			if src == nil {
				continue
			}
			// Named columns of CTEs and derived tables are checked inside their
			// bodies. Anything else can only come through a star.
			if r.analysis.derived(src) {
				if r.exposes(sc, src, name) {
					return
				}
				if tables := r.starTables(sc, src, make(map[*Select]struct{})); len(tables) > 0 {
					r.accesses = append(r.accesses, ColumnAccess{Column: name, Tables: tables, Clause: col.Clause})
				}
				return
			}
			r.accesses = append(r.accesses, ColumnAccess{
				Column: name,
				Tables: []TableReference{*src.Table},
				Clause: col.Clause,
			})
			return
		}
	} else if col.Clause.acceptsOutputAlias() {
		if _, ok := s.aliases[name]; ok {
			return
		}
	}

	for sc := s; sc != nil; sc = sc.parent {
		if len(sc.sources) == 0 {
			continue
		}
		var tables []TableReference
		for _, src := range sc.sources {
			if r.analysis.derived(src) {
				if col.Qualifier == "" && r.exposes(sc, src, name) {
					return
				}
				tables = append(tables, r.starTables(sc, src, make(map[*Select]struct{}))...)
				continue
			}
			tables = append(tables, *src.Table)
		}
		if len(tables) > 0 {
			r.accesses = append(r.accesses, ColumnAccess{Column: name, Tables: tables, Clause: col.Clause})
		}
		return
	}
}

// exposes reports whether a CTE or derived source explicitly names column
// among its output columns.
func (r *resolver) exposes(sc *scope, src *Source, column string) bool {
	names := append([]string(nil), src.ColumnAliases...)
	body := src.Subquery
	if body == nil && src.Table != nil {
		if cte := sc.cte(src.Table.Table); cte != nil {
			body = cte.Query
			names = append(names, cte.Columns...)
		}
	}
	for _, n := range names {
		if strings.ToLower(n) == column {
			return true
		}
	}
	_, ok := outputNames(body)[column]
	return ok
}

// starTables returns the stored tables a CTE or derived source passes through
// a star in its select list, following nested CTEs and derived tables.
func (r *resolver) starTables(sc *scope, src *Source, seen map[*Select]struct{}) []TableReference {
	body := src.Subquery
	if body == nil && src.Table != nil {
		if cte := sc.cte(src.Table.Table); cte != nil {
			body = cte.Query
		}
	}
	return r.starBody(sc, body, seen)
}

func (r *resolver) starBody(parent *scope, body *Select, seen map[*Select]struct{}) []TableReference {
	if body == nil {
		return nil
	}
	if _, ok := seen[body]; ok {
		return nil
	}
	seen[body] = struct{}{}

	s := &scope{
		parent:  parent,
		sources: body.Sources,
		ctes:    make(map[string]*CommonTable, len(body.With)),
	}
	for _, cte := range body.With {
		s.ctes[strings.ToLower(cte.Name)] = cte
	}

	var tables []TableReference
	for _, branch := range body.Branches {
		tables = append(tables, r.starBody(s, branch, seen)...)
	}
	for _, t := range body.Targets {
		if !t.Star {
			continue
		}
		sources := body.Sources
		if t.StarQualifier != "" {
			src := s.lookup(t.StarQualifier)
			if src == nil {
				continue
			}
			sources = []*Source{src}
		}
		for _, src := range sources {
			if r.analysis.derived(src) {
				tables = append(tables, r.starTables(s, src, seen)...)
				continue
			}
			tables = append(tables, *src.Table)
		}
	}
	return tables
}

// outputNames returns the lower-cased output column names of a query block.
// Set operations take their names from the first branch.
func outputNames(sel *Select) map[string]struct{} {
	for sel != nil && len(sel.Branches) > 0 {
		sel = sel.Branches[0]
	}
	names := make(map[string]struct{})
	if sel == nil {
		return names
	}
	for _, t := range sel.Targets {
		if t.Name != "" {
			names[strings.ToLower(t.Name)] = struct{}{}
		}
	}
	return names
}
