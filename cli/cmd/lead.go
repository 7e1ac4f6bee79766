package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Lead record commands",
}

var leadShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show a lead by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		lead, err := repo.GetLead(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetch lead: %w", err)
		}
		return printJSON(lead)
	},
}

var leadFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find a lead by dedup key",
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, _ := cmd.Flags().GetString("workspace")
		email, _ := cmd.Flags().GetString("email")
		phone, _ := cmd.Flags().GetString("phone")
		if workspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		if email == "" && phone == "" {
			return fmt.Errorf("at least one of --email or --phone is required")
		}

		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		lead, err := repo.FindLeadByEmailOrPhone(ctx, workspace, email, phone)
		if err != nil {
			return fmt.Errorf("find lead: %w", err)
		}
		return printJSON(lead)
	},
}

func init() {
	leadFindCmd.Flags().String("workspace", "", "workspace ID")
	leadFindCmd.Flags().String("email", "", "primary email")
	leadFindCmd.Flags().String("phone", "", "normalized phone")

	leadCmd.AddCommand(leadShowCmd)
	leadCmd.AddCommand(leadFindCmd)
	rootCmd.AddCommand(leadCmd)
}
