package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "memberctl",
		Short: "CLI client for the memberdb migration REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "memberdb service base URL")

	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Show migration progress per domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(progressCmd)

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Run the cross-schema consistency check",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsistency(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(consistencyCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate <memorial-id>",
		Short: "Migrate one legacy memorial into the modern schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("memorial id must be an integer: %q", args[0])
			}
			return runMigrate(apiFlag, id, os.Stdout)
		},
	}
	rootCmd.AddCommand(migrateCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Batch migrate unmigrated memorials",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runBatch(apiFlag, limit, os.Stdout)
		},
	}
	batchCmd.Flags().IntP("limit", "l", 100, "Maximum memorials to migrate")
	rootCmd.AddCommand(batchCmd)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search persons across both schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			if query == "" {
				return fmt.Errorf("--query required")
			}
			return runSearch(apiFlag, query, os.Stdout)
		},
	}
	searchCmd.Flags().StringP("query", "q", "", "Search term (required)")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
