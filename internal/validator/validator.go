// Package validator narrows raw inbound JSON into one of the three known
// payload shapes before any processing happens. Structural checks run
// against embedded JSON Schema documents; the Go narrowing that follows
// produces the tagged payload union the rest of the pipeline consumes.
package validator

import (
	"embed"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/audiencelab/leadpipe/internal/fields"
	"github.com/audiencelab/leadpipe/internal/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ValidationError describes a malformed or unrecognized payload. Terminal:
// a payload failing validation is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %s: %s", e.Field, e.Reason)
}

// SchemaValidator holds the compiled schemas for the three payload shapes.
type SchemaValidator struct {
	superpixel   *jsonschema.Schema
	audiencesync *jsonschema.Schema
	batch        *jsonschema.Schema
}

// New compiles the embedded schemas. Compilation failure means a broken
// build, not bad input, so callers treat an error here as fatal.
func New() (*SchemaValidator, error) {
	superpixel, err := compile("schemas/superpixel.json")
	if err != nil {
		return nil, err
	}
	audiencesync, err := compile("schemas/audiencesync.json")
	if err != nil {
		return nil, err
	}
	batch, err := compile("schemas/batch.json")
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{
		superpixel:   superpixel,
		audiencesync: audiencesync,
		batch:        batch,
	}, nil
}

func compile(name string) (*jsonschema.Schema, error) {
	f, err := schemaFS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open schema %s: %w", name, err)
	}
	defer f.Close()

	doc, err := jsonschema.UnmarshalJSON(f)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return sch, nil
}

// Validate narrows a raw body into a typed payload for the declared source.
// It is pure: no side effects, same input always gives the same result.
func (v *SchemaValidator) Validate(body map[string]any, source models.SourceKind) (models.TypedPayload, error) {
	if body == nil {
		return nil, &ValidationError{Field: "body", Reason: "missing payload"}
	}

	switch source {
	case models.SourceSuperPixel:
		return v.validateSuperPixel(body)
	case models.SourceAudienceSync:
		return v.validateAudienceSync(body)
	case models.SourceBatchExport:
		return v.validateBatchRow(body, 0)
	default:
		return nil, &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source kind %q", source)}
	}
}

func (v *SchemaValidator) validateSuperPixel(body map[string]any) (models.TypedPayload, error) {
	if err := v.superpixel.Validate(body); err != nil {
		return nil, schemaError(err)
	}
	if !fields.HasResolutionField(body) {
		return nil, &ValidationError{Field: "payload", Reason: "no resolution fields present"}
	}
	return models.SuperPixelEvent{Fields: body}, nil
}

func (v *SchemaValidator) validateAudienceSync(body map[string]any) (models.TypedPayload, error) {
	body = Unwrap(body)
	if err := v.audiencesync.Validate(body); err != nil {
		return nil, schemaError(err)
	}

	mapped, ok := lookupObject(body, "mapped_fields")
	if !ok {
		return nil, &ValidationError{Field: "mapped_fields", Reason: "missing or not an object"}
	}
	if !fields.HasResolutionField(mapped) {
		return nil, &ValidationError{Field: "mapped_fields", Reason: "no resolution fields present"}
	}
	return models.AudienceSyncRow{MappedFields: mapped}, nil
}

func (v *SchemaValidator) validateBatchRow(body map[string]any, index int) (models.TypedPayload, error) {
	if !fields.HasResolutionField(body) {
		return nil, &ValidationError{Field: "row", Reason: "no resolution fields present"}
	}
	return models.BatchExportRow{Index: index, Fields: body}, nil
}

// ValidateBundle checks a batch upload's structure and narrows its rows.
// Rows that are not JSON objects are reported as row-level errors, not
// bundle failures; remaining rows still process (partial success).
func (v *SchemaValidator) ValidateBundle(body map[string]any) (*models.BatchExportBundle, []models.RowError, error) {
	if body == nil {
		return nil, nil, &ValidationError{Field: "body", Reason: "missing payload"}
	}
	if err := v.batch.Validate(body); err != nil {
		return nil, nil, schemaError(err)
	}

	rawRows, _ := body["rows"].([]any)
	if rawRows == nil {
		return nil, nil, &ValidationError{Field: "rows", Reason: "missing or not an array"}
	}

	bundle := &models.BatchExportBundle{}
	if id, ok := body["bundle_id"].(string); ok {
		bundle.BundleID = id
	}

	var rowErrs []models.RowError
	for i, raw := range rawRows {
		row, ok := raw.(map[string]any)
		if !ok {
			rowErrs = append(rowErrs, models.RowError{Row: i, Error: "row is not an object"})
			continue
		}
		bundle.Rows = append(bundle.Rows, models.BatchExportRow{Index: i, Fields: row})
	}
	return bundle, rowErrs, nil
}

// Unwrap removes the outer delivery envelope some AudienceSync destinations
// add around the row. Unwrapping is idempotent: an already-unwrapped payload
// passes through unchanged.
func Unwrap(body map[string]any) map[string]any {
	if _, ok := body["mapped_fields"]; ok {
		return body
	}
	for _, key := range []string{"payload", "data", "record"} {
		if inner, ok := lookupObject(body, key); ok {
			if _, hasMapped := inner["mapped_fields"]; hasMapped {
				return inner
			}
		}
	}
	return body
}

func lookupObject(body map[string]any, key string) (map[string]any, bool) {
	v, ok := body[key]
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	reason := err.Error()
	field := "payload"
	if ok := asValidationError(err, &ve); ok {
		if loc := strings.TrimPrefix(instanceLocation(ve), "/"); loc != "" {
			field = loc
		}
		reason = "schema violation"
	}
	return &ValidationError{Field: field, Reason: reason}
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

func instanceLocation(ve *jsonschema.ValidationError) string {
	return "/" + strings.Join(ve.InstanceLocation, "/")
}
