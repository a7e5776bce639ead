package permissions

import (
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
)

type model struct {
	Name     string `yaml:"name"`
	Schema   string `yaml:"schema"`
	Database string `yaml:"database"`
}

// document is a dataset permission document. It is either a single flat
// dataset with dimensions and measures, or a list of models. The lists stay
// undecoded so that one bad item is skipped instead of failing the document.
type document struct {
	Name       string    `yaml:"name"`
	Schema     string    `yaml:"schema"`
	Database   string    `yaml:"database"`
	Dimensions yaml.Node `yaml:"dimensions"`
	Measures   yaml.Node `yaml:"measures"`
	Models     yaml.Node `yaml:"models"`
}

// Loader turns permission documents into entries.
type Loader struct {
	logger *slog.Logger
}

// NewLoader returns a Loader that reports malformed documents on logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadEntries parses documents with the default logger.
func LoadEntries(ymlContents ...string) []PermissionEntry {
	return NewLoader(nil).Load(ymlContents...)
}

// ExtractDatasetsFromYml returns the entries of one document.
func ExtractDatasetsFromYml(yml string) []PermissionEntry {
	return LoadEntries(yml)
}

// ExtractTablesFromYml returns the tables one document grants, without
// their column allowlists.
func ExtractTablesFromYml(yml string) []sqlparser.TableReference {
	entries := LoadEntries(yml)
	tables := make([]sqlparser.TableReference, 0, len(entries))
	for _, e := range entries {
		tables = append(tables, e.TableReference)
	}
	return tables
}

// Load parses every document and merges the entries. A malformed document
// grants nothing. When two entries name the same table the one with a
// column allowlist wins.
func (l *Loader) Load(ymlContents ...string) []PermissionEntry {
	var entries []PermissionEntry
	index := make(map[string]int)

	for i, content := range ymlContents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		var doc document
		if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
			l.logger.Warn("skipping malformed permission document",
				slog.Int("document", i),
				slog.String("error", err.Error()))
			continue
		}
		for _, entry := range doc.entries() {
			key := sqlparser.NormalizeTableIdentifier(entry.TableReference)
			if at, ok := index[key]; ok {
				if !entries[at].HasColumnRestrictions() && entry.HasColumnRestrictions() {
					entries[at] = entry
				}
				continue
			}
			index[key] = len(entries)
			entries = append(entries, entry)
		}
	}
	return entries
}

func (d *document) entries() []PermissionEntry {
	if models := items(&d.Models); len(models) > 0 {
		entries := make([]PermissionEntry, 0, len(models))
		for _, item := range models {
			var m model
			if item.Kind != yaml.MappingNode || item.Decode(&m) != nil {
				continue
			}
			if m.Name == "" || (m.Schema == "" && m.Database == "") {
				continue
			}
			entries = append(entries, PermissionEntry{
				TableReference: sqlparser.NewTableReference(m.Database, m.Schema, m.Name),
			})
		}
		return entries
	}

	if d.Name == "" || (d.Schema == "" && d.Database == "") {
		return nil
	}
	entry := PermissionEntry{TableReference: sqlparser.NewTableReference(d.Database, d.Schema, d.Name)}
	seen := make(map[string]struct{})
	for _, item := range append(items(&d.Dimensions), items(&d.Measures)...) {
		name := strings.ToLower(strings.TrimSpace(fieldName(item)))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		entry.Columns = append(entry.Columns, name)
	}
	return []PermissionEntry{entry}
}

// items returns the elements of a sequence node. Anything else has none.
func items(n *yaml.Node) []*yaml.Node {
	if n.Kind != yaml.SequenceNode {
		return nil
	}
	return n.Content
}

// fieldName returns the column a dimension or measure names. Items are
// either {name: col} mappings or bare strings; other shapes name nothing.
func fieldName(item *yaml.Node) string {
	switch item.Kind {
	case yaml.ScalarNode:
		if item.ShortTag() == "!!str" {
			return item.Value
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, value := item.Content[i], item.Content[i+1]
			if key.Value == "name" && value.Kind == yaml.ScalarNode && value.ShortTag() == "!!str" {
				return value.Value
			}
		}
	}
	return ""
}
