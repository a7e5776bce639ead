package sqlparser

// ExtractPhysicalTables returns the stored tables a query reads, deduplicated
// in first-seen order. A reference whose table part names a CTE of the batch
// is dropped whatever its qualifier. Parse failures are returned
// as *ParseError.
func ExtractPhysicalTables(sql, dataSourceSyntax string) ([]TableReference, error) {
	analysis, err := Analyze(sql, dataSourceSyntax)
	if err != nil {
		return nil, err
	}
	return analysis.PhysicalTables(), nil
}

// PhysicalTables returns the deduplicated stored tables of the batch.
func (a *Analysis) PhysicalTables() []TableReference {
	seen := make(map[tableKey]struct{})
	tables := make([]TableReference, 0)
	for _, stmt := range a.Statements {
		for _, token := range stmt.Tables {
			ref := ParseTableReference(token)
			if a.IsCTE(ref.Table) {
				continue
			}
			key := keyOf(ref)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			tables = append(tables, ref)
		}
	}
	return tables
}
