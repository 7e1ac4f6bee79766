package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService     = "service"
	FieldWorkspaceID = "workspace_id"
	FieldEventID     = "event_id"
	FieldLeadID      = "lead_id"
	FieldSource      = "source"
	FieldOutcome     = "outcome"
	FieldReason      = "reason"
	FieldIP          = "ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatus      = "status"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// WorkspaceID returns a slog attribute for the tenant workspace.
func WorkspaceID(id string) slog.Attr {
	return slog.String(FieldWorkspaceID, id)
}

// EventID returns a slog attribute for a raw event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// LeadID returns a slog attribute for a lead ID.
func LeadID(id string) slog.Attr {
	return slog.String(FieldLeadID, id)
}

// Source returns a slog attribute for the upstream source kind.
func Source(source string) slog.Attr {
	return slog.String(FieldSource, source)
}

// Outcome returns a slog attribute for a pipeline outcome.
func Outcome(outcome string) slog.Attr {
	return slog.String(FieldOutcome, outcome)
}

// Reason returns a slog attribute for a rejection reason.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}

// IP returns a slog attribute for the client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
