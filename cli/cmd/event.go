package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/audiencelab/leadpipe/common/logging"
	"github.com/audiencelab/leadpipe/internal/fingerprint"
	"github.com/audiencelab/leadpipe/internal/normalizer"
	"github.com/audiencelab/leadpipe/internal/notifier"
	"github.com/audiencelab/leadpipe/internal/repository"
	"github.com/audiencelab/leadpipe/internal/routing"
	"github.com/audiencelab/leadpipe/internal/service"
	"github.com/audiencelab/leadpipe/internal/validator"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Raw event commands",
	Long:  "Inspect and retry stored raw events",
}

var eventShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show a stored raw event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		event, err := repo.GetRawEvent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetch event: %w", err)
		}
		return printJSON(event)
	},
}

var eventRetryCmd = &cobra.Command{
	Use:   "retry <event-id>",
	Short: "Re-run the pipeline for a stored raw event",
	Long: `Re-run the ingestion pipeline for a stored raw event.

Events that already have a ledger outcome are skipped unless --force is
given, which deletes the ledger entry first and reprocesses from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		event, err := repo.GetRawEvent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetch event: %w", err)
		}

		entry, err := repo.GetLedgerEntry(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("check ledger: %w", err)
		}
		if entry != nil {
			if !force {
				fmt.Printf("event %s already processed: outcome=%s reason=%s (use --force to reprocess)\n",
					event.ID, entry.Outcome, entry.Reason)
				return nil
			}
			if err := repo.DeleteLedgerEntry(ctx, event.ID); err != nil {
				return fmt.Errorf("clear ledger entry: %w", err)
			}
		}

		pipeline, err := buildPipeline(repo)
		if err != nil {
			return err
		}

		result, err := pipeline.ProcessEvent(ctx, event.ID, event.WorkspaceID, event.Source, event.Body, event.Raw)
		if err != nil {
			return fmt.Errorf("reprocess event: %w", err)
		}

		fmt.Printf("event %s reprocessed: outcome=%s reason=%s\n", result.EventID, result.Outcome, result.Reason)
		return nil
	},
}

// buildPipeline assembles a local pipeline over the shared database. The
// CLI routes with the configured rules file and notifies to the log only;
// forcing a retry should not surprise downstream consumers with bus
// traffic.
func buildPipeline(repo repository.Repository) (*service.Pipeline, error) {
	schemaValidator, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("compile schemas: %w", err)
	}

	scoring := cfg.Scoring
	if scoring.LeadThreshold == 0 {
		scoring = normalizer.DefaultScoring()
	}

	var resolver routing.Resolver
	if static, err := routing.LoadStaticResolver(cfg.Routing.RulesPath); err == nil {
		resolver = static
	} else {
		resolver = routing.NewStaticResolver(nil)
	}

	logger := logging.Default().With(logging.Service("leadpipectl"))

	return service.NewPipeline(
		schemaValidator,
		normalizer.New(scoring),
		repo,
		resolver,
		notifier.LogNotifier{},
		fingerprint.SHA256{},
		logger,
	), nil
}

func openRepo() (repository.Repository, error) {
	if !cfg.Postgres.Enabled || cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres is not configured; set postgres.enabled and postgres.url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return repository.NewPostgresRepository(ctx, cfg.Postgres.URL)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	eventRetryCmd.Flags().Bool("force", false, "reprocess even if a ledger outcome exists")

	eventCmd.AddCommand(eventShowCmd)
	eventCmd.AddCommand(eventRetryCmd)
	rootCmd.AddCommand(eventCmd)
}
