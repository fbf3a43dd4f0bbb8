package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sigtrack/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Run a scripted editing session and print the watcher events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := replay.Load(args[0])
		if err != nil {
			return err
		}
		events, err := replay.Run(script)
		for _, ev := range events {
			fmt.Fprintln(cmd.OutOrStdout(), ev)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
