package models

// TypedPayload is the tagged union produced by the schema validator.
// Raw JSON never crosses the validator boundary as the identity type;
// downstream stages only see one of the concrete variants below.
type TypedPayload interface {
	Source() SourceKind
}

// SuperPixelEvent is a real-time identification ping: a flat object with
// UPPER_SNAKE_CASE resolution fields (EMAIL, FIRST_NAME, IP_ADDRESS, ...).
type SuperPixelEvent struct {
	Fields map[string]any
}

func (SuperPixelEvent) Source() SourceKind { return SourceSuperPixel }

// AudienceSyncRow is a CDP destination row. The interesting data lives in a
// nested mapped-fields object; the outer envelope (if any) has already been
// unwrapped by the validator.
type AudienceSyncRow struct {
	MappedFields map[string]any
}

func (AudienceSyncRow) Source() SourceKind { return SourceAudienceSync }

// BatchExportRow is a single row of a batch export bundle. Rows use the same
// UPPER_SNAKE_CASE field vocabulary as superpixel events. Index is the row's
// position in the original bundle, kept for row-level error reporting.
type BatchExportRow struct {
	Index  int
	Fields map[string]any
}

func (BatchExportRow) Source() SourceKind { return SourceBatchExport }

// BatchExportBundle is a validated batch upload: an ordered list of rows,
// each processed independently through the single-event pipeline.
type BatchExportBundle struct {
	BundleID string
	Rows     []BatchExportRow
}
