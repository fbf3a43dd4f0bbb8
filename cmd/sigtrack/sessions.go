package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sigtrack/internal/journal"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Print recent tracking events from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			return fmt.Errorf("no journal database configured")
		}
		store, err := journal.NewStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := store.RecentEvents(sessionsLimit)
		if err != nil {
			return err
		}
		for _, ev := range events {
			ts := time.Unix(ev.RecordedAt, 0).Format(time.RFC3339)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-18s %s %s\n",
				ts, ev.Session[:8], ev.Kind, ev.URI, ev.Declaration)
		}
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 50, "number of events to show")
	rootCmd.AddCommand(sessionsCmd)
}
