// Package main provides a CLI for checking SQL queries against dataset
// permissions.
//
// The CLI supports:
//   - validate: Full verdict for a user (query type, tables, columns)
//   - tables: Stored tables a query reads
//   - columns: Column references grouped by table
//   - check: Read-only query check
//   - wildcards: SELECT * check
//   - grant / revoke: Manage permission documents in a SQL store
//
// Usage:
//
//	sqlaccess [flags] <command>
package main

func main() {
	Execute()
}
