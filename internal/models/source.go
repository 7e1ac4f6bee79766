package models

// SourceKind identifies which upstream integration produced a raw event.
type SourceKind string

const (
	// SourceSuperPixel is the real-time visitor identification pixel.
	SourceSuperPixel SourceKind = "superpixel"

	// SourceAudienceSync is the CDP activation/destination feed.
	SourceAudienceSync SourceKind = "audiencesync"

	// SourceBatchExport is the bulk export bundle upload.
	SourceBatchExport SourceKind = "batch_export"
)

// ParseSourceKind maps a webhook path segment to a SourceKind.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "superpixel":
		return SourceSuperPixel, true
	case "audiencesync":
		return SourceAudienceSync, true
	case "batch", "batch_export":
		return SourceBatchExport, true
	default:
		return "", false
	}
}
