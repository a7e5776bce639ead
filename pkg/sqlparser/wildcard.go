package sqlparser

import (
	"fmt"
	"strings"
)

// ValidateWildcardUsage rejects SELECT * and t.* over stored tables. Stars
// over CTEs and derived tables are allowed because their own select lists
// are checked where they are defined.
func ValidateWildcardUsage(sql, dataSourceSyntax string) WildcardResult {
	analysis, err := Analyze(sql, dataSourceSyntax)
	if err != nil {
		return WildcardResult{
			IsValid: false,
			Error:   fmt.Sprintf("Failed to validate wildcard usage in SQL query: %s", causeOf(err)),
		}
	}
	return analysis.Wildcards()
}

// Wildcards reports every stored table selected with a star.
func (a *Analysis) Wildcards() WildcardResult {
	var blocked []string
	seen := make(map[string]struct{})
	block := func(src *Source) {
		if src == nil || a.derived(src) {
			return
		}
		key := NormalizeTableIdentifier(*src.Table)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		blocked = append(blocked, src.Table.Table)
	}

	for _, stmt := range a.Statements {
		forEachSelect(stmt.Select, func(sel *Select) {
			s := &scope{sources: sel.Sources}
			for _, t := range sel.Targets {
				if !t.Star {
					continue
				}
				if t.StarQualifier != "" {
					block(s.lookup(t.StarQualifier))
					continue
				}
				for _, src := range sel.Sources {
					block(src)
				}
			}
		})
	}

	if len(blocked) == 0 {
		return WildcardResult{IsValid: true}
	}
	noun := "table"
	if len(blocked) > 1 {
		noun = "tables"
	}
	return WildcardResult{
		IsValid: false,
		Error: fmt.Sprintf("SELECT * is not allowed on physical %s: %s. Please specify explicit column names instead of using SELECT * on physical tables.",
			noun, strings.Join(blocked, ", ")),
		BlockedTables: blocked,
	}
}
