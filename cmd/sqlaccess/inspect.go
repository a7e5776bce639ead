package main

import (
	"github.com/spf13/cobra"

	"github.com/wemcdonald/sqlaccess/internal/cli"
	"github.com/wemcdonald/sqlaccess/pkg/sqlparser"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [sql]",
	Short: "List the stored tables a query reads",
	Example: `  sqlaccess tables --sql "WITH t AS (SELECT * FROM orders) SELECT * FROM t JOIN users u ON u.id = t.user_id"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(cmd, args)
		if err != nil {
			return err
		}
		tables, err := sqlparser.ExtractPhysicalTables(query, syntax())
		if err != nil {
			return cli.ParseError("extracting tables", err)
		}
		return printJSON(cmd, tables)
	},
}

var columnsCmd = &cobra.Command{
	Use:   "columns [sql]",
	Short: "List the columns a query reads, grouped by table",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(cmd, args)
		if err != nil {
			return err
		}
		columns, err := sqlparser.ExtractColumnReferences(query, syntax())
		if err != nil {
			return cli.ParseError("extracting columns", err)
		}
		return printJSON(cmd, columns)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [sql]",
	Short: "Check that a query is read-only",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(cmd, args)
		if err != nil {
			return err
		}
		result := sqlparser.CheckQueryIsReadOnly(query, syntax())
		if err := printJSON(cmd, result); err != nil {
			return err
		}
		if !result.IsReadOnly {
			return cli.Silent(cli.ExitGeneral)
		}
		return nil
	},
}

var wildcardsCmd = &cobra.Command{
	Use:   "wildcards [sql]",
	Short: "Check a query for SELECT * over stored tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(cmd, args)
		if err != nil {
			return err
		}
		result := sqlparser.ValidateWildcardUsage(query, syntax())
		if err := printJSON(cmd, result); err != nil {
			return err
		}
		if !result.IsValid {
			return cli.Silent(cli.ExitGeneral)
		}
		return nil
	},
}
