package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sigtrack/internal/journal"
	"sigtrack/internal/lsp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		var store *journal.Store
		if dbPath != "" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return fmt.Errorf("failed to create journal directory: %w", err)
			}
			var err error
			store, err = journal.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		server, err := lsp.NewServer(store)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return server.RunStdio()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
