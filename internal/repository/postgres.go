package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/audiencelab/leadpipe/internal/models"
)

const queryTimeout = 5 * time.Second

// PostgresRepository implements Repository on a pgx connection pool. Dedup
// atomicity comes from partial unique indexes on (workspace_id, email) and
// (workspace_id, phone); concurrent inserts for the same key surface as
// ErrDuplicateLead and the caller retries the merge path.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and verifies the
// connection.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) InsertRawEvent(ctx context.Context, event *models.RawEvent) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	body, err := json.Marshal(event.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal event body: %w", err)
	}

	// Redeliveries re-insert the same ID; keep the original row.
	query := `
		INSERT INTO raw_events (id, source, workspace_id, received_at, processed, body)
		VALUES ($1, $2, $3, $4, false, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query,
		event.ID, string(event.Source), event.WorkspaceID, event.ReceivedAt, body,
	)
	if err != nil {
		return fmt.Errorf("failed to insert raw event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetRawEvent(ctx context.Context, id string) (*models.RawEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, source, workspace_id, received_at, processed,
		       COALESCE(processing_error, ''), body
		FROM raw_events
		WHERE id = $1
	`

	var event models.RawEvent
	var source string
	var body []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID, &source, &event.WorkspaceID, &event.ReceivedAt,
		&event.Processed, &event.ProcessingError, &body,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get raw event: %w", err)
	}

	event.Source = models.SourceKind(source)
	event.Raw = body
	if err := json.Unmarshal(body, &event.Body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event body: %w", err)
	}
	return &event, nil
}

func (r *PostgresRepository) SetRawEventProcessed(ctx context.Context, id string, processingError string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE raw_events
		SET processed = true, processing_error = NULLIF($2, '')
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, processingError)
	if err != nil {
		return fmt.Errorf("failed to update raw event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PostgresRepository) FindLeadByEmailOrPhone(ctx context.Context, workspaceID, email, phone string) (*models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE workspace_id = $1
		  AND ((email <> '' AND email = $2) OR (phone <> '' AND phone = $3))
		ORDER BY created_at
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, workspaceID, email, phone)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) InsertLead(ctx context.Context, lead *models.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO leads (
			id, workspace_id, email, phone, emails, phones,
			first_name, last_name, company_name, ip_address, event_type,
			source, deliverability_score, intent_signals, quality_passed,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		lead.ID, lead.WorkspaceID, lead.Email, lead.Phone, lead.Emails, lead.Phones,
		lead.FirstName, lead.LastName, lead.CompanyName, lead.IPAddress, lead.EventType,
		string(lead.Source), lead.DeliverabilityScore, lead.IntentSignals, lead.QualityPassed,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateLead
		}
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MergeLead(ctx context.Context, existingID string, incoming *models.Lead) (*models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Fill-empty-only per field; signal/email/phone sets accumulate.
	query := `
		UPDATE leads SET
			email        = CASE WHEN email = ''        THEN $2 ELSE email END,
			phone        = CASE WHEN phone = ''        THEN $3 ELSE phone END,
			first_name   = CASE WHEN first_name = ''   THEN $4 ELSE first_name END,
			last_name    = CASE WHEN last_name = ''    THEN $5 ELSE last_name END,
			company_name = CASE WHEN company_name = '' THEN $6 ELSE company_name END,
			ip_address   = CASE WHEN ip_address = ''   THEN $7 ELSE ip_address END,
			event_type   = CASE WHEN event_type IN ('', 'unknown') THEN $8 ELSE event_type END,
			deliverability_score = GREATEST(deliverability_score, $9),
			emails = (SELECT ARRAY(SELECT DISTINCT e FROM unnest(emails || $10::text[]) AS e WHERE e <> '')),
			phones = (SELECT ARRAY(SELECT DISTINCT p FROM unnest(phones || $11::text[]) AS p WHERE p <> '')),
			intent_signals = (SELECT ARRAY(SELECT DISTINCT s FROM unnest(intent_signals || $12::text[]) AS s WHERE s <> '')),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + leadColumns + `
	`

	row := r.pool.QueryRow(ctx, query,
		existingID, incoming.Email, incoming.Phone,
		incoming.FirstName, incoming.LastName, incoming.CompanyName,
		incoming.IPAddress, incoming.EventType, incoming.DeliverabilityScore,
		incoming.Emails, incoming.Phones, incoming.IntentSignals,
	)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to merge lead: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, entry *models.LedgerEntry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO processing_ledger (raw_event_id, outcome, reason, processed_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.RawEventID, string(entry.Outcome), entry.Reason, entry.ProcessedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to mark processed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetLedgerEntry(ctx context.Context, rawEventID string) (*models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT raw_event_id, outcome, COALESCE(reason, ''), processed_at
		FROM processing_ledger
		WHERE raw_event_id = $1
	`

	var entry models.LedgerEntry
	var outcome string
	err := r.pool.QueryRow(ctx, query, rawEventID).Scan(
		&entry.RawEventID, &outcome, &entry.Reason, &entry.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	entry.Outcome = models.Outcome(outcome)
	return &entry, nil
}

func (r *PostgresRepository) DeleteLedgerEntry(ctx context.Context, rawEventID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `DELETE FROM processing_ledger WHERE raw_event_id = $1`, rawEventID)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	return nil
}

const leadColumns = `
	id, workspace_id, email, phone, emails, phones,
	first_name, last_name, company_name, ip_address, event_type,
	source, deliverability_score, intent_signals, quality_passed,
	created_at, updated_at
`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	var source string
	err := row.Scan(
		&lead.ID, &lead.WorkspaceID, &lead.Email, &lead.Phone, &lead.Emails, &lead.Phones,
		&lead.FirstName, &lead.LastName, &lead.CompanyName, &lead.IPAddress, &lead.EventType,
		&source, &lead.DeliverabilityScore, &lead.IntentSignals, &lead.QualityPassed,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Source = models.SourceKind(source)
	return &lead, nil
}
