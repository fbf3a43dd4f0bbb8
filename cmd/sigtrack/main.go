package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var (
	verbosity int
	dbPath    string
)

var rootCmd = &cobra.Command{
	Use:     "sigtrack",
	Short:   "Live signature edit tracking for source buffers",
	Version: "0.1.0",
	Long: `sigtrack watches source buffers for edits to declaration
signatures and drives a watcher through the tracking lifecycle:
editing started, next signature, inconsistent state, reset.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(verbosity, nil)
	},
}

func main() {
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 1, "log verbosity")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "journal database path (empty disables journaling)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultDBPath() string {
	return filepath.Join(os.TempDir(), "sigtrack", "journal.db")
}
