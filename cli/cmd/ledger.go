package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Processing ledger commands",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show the recorded outcome for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		entry, err := repo.GetLedgerEntry(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetch ledger entry: %w", err)
		}
		if entry == nil {
			fmt.Printf("no ledger entry for event %s\n", args[0])
			return nil
		}
		return printJSON(entry)
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerShowCmd)
	rootCmd.AddCommand(ledgerCmd)
}
