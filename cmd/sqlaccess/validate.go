package main

import (
	"github.com/spf13/cobra"

	"github.com/wemcdonald/sqlaccess/internal/cli"
	"github.com/wemcdonald/sqlaccess/pkg/sqlaccess"
)

var (
	validateUser           string
	validateBlockWildcards bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [sql]",
	Short: "Validate a query for a user",
	Long: `Validate a query against the permission documents granted to a user.

The verdict is printed as JSON. The exit code is 0 when the query is
authorized, 3 when it does not parse, 4 when the permission store fails and
1 for any other rejection.`,
	Example: `  # Validate a query against permissions loaded from a directory
  sqlaccess validate --user alice --sql "SELECT id FROM public.users"

  # Read the query from a file using MySQL syntax
  sqlaccess validate --user alice --file report.sql --dialect mysql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(cmd, args)
		if err != nil {
			return err
		}

		store, closeStore, err := cfg.OpenStore(cmd.Context())
		if err != nil {
			return cli.StoreError("opening permission store", err)
		}
		defer func() { _ = closeStore() }()

		validator := sqlaccess.New(store, sqlaccess.Options{
			PageSize:       cfg.PageSize,
			BlockWildcards: validateBlockWildcards || cfg.BlockWildcards,
			Logger:         logger,
		})
		result := validator.Validate(cmd.Context(), query, validateUser, syntax())
		if err := printJSON(cmd, result); err != nil {
			return err
		}

		switch {
		case result.IsAuthorized:
			return nil
		case result.Kind == sqlaccess.CodeSyntaxError:
			return cli.Silent(cli.ExitParse)
		case result.Kind == sqlaccess.CodePermissionStoreFailure:
			return cli.Silent(cli.ExitStoreConnect)
		}
		return cli.Silent(cli.ExitGeneral)
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateUser, "user", "u", "", "user id to validate for")
	validateCmd.Flags().BoolVar(&validateBlockWildcards, "block-wildcards", false, "reject SELECT * over stored tables")
	_ = validateCmd.MarkFlagRequired("user")
}
