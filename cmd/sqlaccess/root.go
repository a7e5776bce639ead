package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wemcdonald/sqlaccess/internal/cli"
	"github.com/wemcdonald/sqlaccess/internal/logging"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile  string
	dialect  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sqlaccess",
	Short: "SQL access-control validation",
	Long: `sqlaccess - SQL access-control validation

sqlaccess decides whether a user may run a SQL query given the dataset
permission documents granted to them. Only read-only queries over granted
tables and columns are authorized.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		logger = logging.New(resolveString(logLevel, cfg.Log.Level), cfg.Log.Format, os.Stderr)
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupQuery   = "query"
	groupStore   = "store"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover sqlaccess.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dialect, "dialect", "d", "", "data source syntax (default: config dialect)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Query:"},
		&cobra.Group{ID: groupStore, Title: "Store:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	for _, cmd := range []*cobra.Command{validateCmd, tablesCmd, columnsCmd, checkCmd, wildcardsCmd} {
		cmd.GroupID = groupQuery
		addQueryFlags(cmd)
		rootCmd.AddCommand(cmd)
	}

	grantCmd.GroupID = groupStore
	revokeCmd.GroupID = groupStore
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// addQueryFlags registers the flags that supply the SQL text.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("sql", "s", "", "SQL text")
	cmd.Flags().StringP("file", "f", "", "file containing the SQL text")
}

// readQuery returns the SQL from --sql, --file, the first argument or stdin,
// in that order.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	sql, _ := cmd.Flags().GetString("sql")
	file, _ := cmd.Flags().GetString("file")

	switch {
	case sql != "":
		return sql, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", cli.GeneralError("reading query file", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", cli.GeneralError("reading query from stdin", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", cli.GeneralError("no SQL given: use --sql, --file or stdin", nil)
	}
	return string(data), nil
}

// syntax returns the data source syntax in effect.
func syntax() string {
	if cfg == nil {
		return dialect
	}
	return resolveString(dialect, cfg.Dialect)
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
