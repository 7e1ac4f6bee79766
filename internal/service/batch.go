package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/audiencelab/leadpipe/common/logging"
	"github.com/audiencelab/leadpipe/internal/fingerprint"
	"github.com/audiencelab/leadpipe/internal/metrics"
	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/validator"
)

// ProcessBatch runs each row of a bundle through the single-event pipeline.
// Partial success is the normal case: some rows create leads, others are
// rejected, and row-level validation errors are reported in the summary
// without failing the bundle. A malformed bundle (no rows array) returns a
// *validator.ValidationError.
func (p *Pipeline) ProcessBatch(ctx context.Context, workspaceID string, body map[string]any, raw []byte) (*models.BatchSummary, error) {
	bundle, rowErrs, err := p.validator.ValidateBundle(body)
	if err != nil {
		return nil, err
	}

	bundleID := bundle.BundleID
	if bundleID == "" {
		bundleID = fingerprint.EventID(p.hasher, string(models.SourceBatchExport), raw)
	}

	summary := &models.BatchSummary{
		Total:     len(bundle.Rows) + len(rowErrs),
		RowErrors: rowErrs,
		Errors:    len(rowErrs),
	}
	for range rowErrs {
		metrics.BatchRowsTotal.WithLabelValues("error").Inc()
	}

	rows := bundle.Rows
	if len(rows) > p.maxBatchRows {
		p.logger.WarnContext(ctx, "bundle truncated",
			logging.EventID(bundleID),
			logging.Reason(fmt.Sprintf("row limit %d", p.maxBatchRows)),
		)
		rows = rows[:p.maxBatchRows]
	}

	for _, row := range rows {
		rowRaw, marshalErr := json.Marshal(row.Fields)
		if marshalErr != nil {
			rowRaw = raw
		}
		eventID := p.rowEventID(bundleID, row)

		result, err := p.ProcessEvent(ctx, eventID, workspaceID, models.SourceBatchExport, row.Fields, rowRaw)
		if err != nil {
			var ve *validator.ValidationError
			if errors.As(err, &ve) {
				summary.Errors++
				summary.RowErrors = append(summary.RowErrors, models.RowError{Row: row.Index, Error: ve.Error()})
				metrics.BatchRowsTotal.WithLabelValues("error").Inc()
				continue
			}
			// Transient failure: the row stays unprocessed and a bundle
			// redelivery will retry it; already-processed rows short-circuit.
			summary.Errors++
			summary.RowErrors = append(summary.RowErrors, models.RowError{Row: row.Index, Error: "transient failure, row will retry"})
			metrics.BatchRowsTotal.WithLabelValues("error").Inc()
			p.logger.ErrorContext(ctx, "batch row failed",
				logging.EventID(eventID),
				logging.Error(err),
			)
			continue
		}

		switch result.Outcome {
		case models.OutcomeCreated:
			summary.Created++
		case models.OutcomeMerged:
			summary.Merged++
		case models.OutcomeRejected:
			summary.Rejected++
		default:
			summary.Errors++
		}
		metrics.BatchRowsTotal.WithLabelValues(string(result.Outcome)).Inc()
	}

	return summary, nil
}

// rowEventID scopes a row's idempotency key to its bundle position unless
// the row carries its own upstream ID.
func (p *Pipeline) rowEventID(bundleID string, row models.BatchExportRow) string {
	if v, ok := row.Fields["event_id"].(string); ok && v != "" {
		return v
	}
	if v, ok := row.Fields["EVENT_ID"].(string); ok && v != "" {
		return v
	}
	return fmt.Sprintf("%s-%d", bundleID, row.Index)
}
