package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wemcdonald/sqlaccess/internal/cli"
	"github.com/wemcdonald/sqlaccess/pkg/permissions"
)

var grantName string

var grantCmd = &cobra.Command{
	Use:   "grant <user> <document.yml>",
	Short: "Grant a permission document to a user",
	Long: `Store a dataset permission document for a user in the SQL store.

The document name defaults to the file name without its extension. Granting
a name the user already holds replaces that document.`,
	Example: `  sqlaccess grant alice datasets/sales.yml
  SQLACCESS_STORE_DRIVER=pgx SQLACCESS_STORE_DSN=postgres://localhost/app sqlaccess grant alice sales.yml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, path := args[0], args[1]
		content, err := os.ReadFile(path)
		if err != nil {
			return cli.GeneralError("reading permission document", err)
		}
		if len(permissions.ExtractDatasetsFromYml(string(content))) == 0 {
			return cli.ParseError(fmt.Sprintf("%s grants no tables", path), nil)
		}

		store, err := cfg.OpenSQLStore(cmd.Context())
		if err != nil {
			return cli.StoreError("opening permission store", err)
		}
		defer func() { _ = store.Close() }()

		name := resolveString(grantName, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		dataset := permissions.Dataset{Name: name, YMLContent: string(content)}
		if err := store.Grant(cmd.Context(), user, dataset); err != nil {
			return cli.StoreError("granting dataset", err)
		}
		logger.Info("granted dataset", "user", user, "dataset", name)
		fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s\n", name, user)
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <user> <dataset>",
	Short: "Revoke a permission document from a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, name := args[0], args[1]

		store, err := cfg.OpenSQLStore(cmd.Context())
		if err != nil {
			return cli.StoreError("opening permission store", err)
		}
		defer func() { _ = store.Close() }()

		removed, err := store.Revoke(cmd.Context(), user, name)
		if err != nil {
			return cli.StoreError("revoking dataset", err)
		}
		if !removed {
			return cli.GeneralError(fmt.Sprintf("%s holds no dataset named %s", user, name), nil)
		}
		logger.Info("revoked dataset", "user", user, "dataset", name)
		fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s from %s\n", name, user)
		return nil
	},
}

func init() {
	grantCmd.Flags().StringVar(&grantName, "name", "", "dataset name (default: file name)")
}
