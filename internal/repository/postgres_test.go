package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/audiencelab/leadpipe/internal/models"
)

// setupTestDatabase starts a PostgreSQL testcontainer and runs migrations.
func setupTestDatabase(t *testing.T) *PostgresRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("leadpipe_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(repo.Close)

	return repo
}

func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "001_init.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

func TestPostgres_RawEventRoundTrip(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	event := &models.RawEvent{
		ID:          "evt-1",
		Source:      models.SourceSuperPixel,
		WorkspaceID: "ws-1",
		ReceivedAt:  time.Now().UTC().Truncate(time.Millisecond),
		Body:        map[string]any{"EMAIL": "a@b.co"},
	}
	require.NoError(t, repo.InsertRawEvent(ctx, event))

	// redelivered insert keeps the original row
	dup := *event
	dup.WorkspaceID = "ws-other"
	require.NoError(t, repo.InsertRawEvent(ctx, &dup))

	got, err := repo.GetRawEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "ws-1", got.WorkspaceID)
	assert.Equal(t, models.SourceSuperPixel, got.Source)
	assert.Equal(t, "a@b.co", got.Body["EMAIL"])
	assert.False(t, got.Processed)

	require.NoError(t, repo.SetRawEventProcessed(ctx, "evt-1", "validation: missing_email"))
	got, err = repo.GetRawEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, "validation: missing_email", got.ProcessingError)

	_, err = repo.GetRawEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestPostgres_LeadLifecycle(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	lead := testLead("lead-1", "ws-1", "jane@acme.com", "5551234567")
	lead.Emails = []string{"jane@acme.com"}
	lead.Phones = []string{"5551234567"}
	lead.IntentSignals = []string{"pricing"}
	lead.DeliverabilityScore = 0.7
	lead.QualityPassed = true
	require.NoError(t, repo.InsertLead(ctx, lead))

	byEmail, err := repo.FindLeadByEmailOrPhone(ctx, "ws-1", "jane@acme.com", "")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", byEmail.ID)
	assert.True(t, byEmail.QualityPassed)

	byPhone, err := repo.FindLeadByEmailOrPhone(ctx, "ws-1", "", "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", byPhone.ID)

	// unique index enforces the dedup key per workspace
	err = repo.InsertLead(ctx, testLead("lead-2", "ws-1", "jane@acme.com", ""))
	assert.ErrorIs(t, err, ErrDuplicateLead)
	require.NoError(t, repo.InsertLead(ctx, testLead("lead-3", "ws-2", "jane@acme.com", "")))

	_, err = repo.FindLeadByEmailOrPhone(ctx, "ws-1", "nobody@acme.com", "")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestPostgres_MergeLead(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	existing := testLead("lead-1", "ws-1", "jane@acme.com", "")
	existing.Emails = []string{"jane@acme.com"}
	existing.IntentSignals = []string{"pricing"}
	existing.DeliverabilityScore = 0.7
	require.NoError(t, repo.InsertLead(ctx, existing))

	incoming := testLead("", "ws-1", "jane@acme.com", "5551234567")
	incoming.CompanyName = "Other Co"
	incoming.Emails = []string{"jane@acme.com", "j.doe@acme.com"}
	incoming.Phones = []string{"5551234567"}
	incoming.IntentSignals = []string{"pricing", "demo"}
	incoming.DeliverabilityScore = 0.5

	merged, err := repo.MergeLead(ctx, "lead-1", incoming)
	require.NoError(t, err)

	assert.Equal(t, "Acme", merged.CompanyName)
	assert.Equal(t, "5551234567", merged.Phone)
	assert.Equal(t, 0.7, merged.DeliverabilityScore)
	assert.ElementsMatch(t, []string{"jane@acme.com", "j.doe@acme.com"}, merged.Emails)
	assert.ElementsMatch(t, []string{"pricing", "demo"}, merged.IntentSignals)

	_, err = repo.MergeLead(ctx, "missing", incoming)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestPostgres_Ledger(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	entry, err := repo.GetLedgerEntry(ctx, "evt-1")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, repo.MarkProcessed(ctx, &models.LedgerEntry{
		RawEventID:  "evt-1",
		Outcome:     models.OutcomeCreated,
		ProcessedAt: time.Now().UTC(),
	}))

	err = repo.MarkProcessed(ctx, &models.LedgerEntry{
		RawEventID:  "evt-1",
		Outcome:     models.OutcomeMerged,
		ProcessedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	entry, err = repo.GetLedgerEntry(ctx, "evt-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.OutcomeCreated, entry.Outcome)

	require.NoError(t, repo.DeleteLedgerEntry(ctx, "evt-1"))
	entry, err = repo.GetLedgerEntry(ctx, "evt-1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
