// Package messaging defines standard subject names for the leadpipe bus.
package messaging

// Subject constants follow the pattern: {domain}.{action}.{workspace}.
const (
	// SubjectLeadsCreated is published when a new lead is inserted.
	SubjectLeadsCreated = "leads.created"

	// SubjectLeadsMerged is published when an event merges into an existing lead.
	SubjectLeadsMerged = "leads.merged"
)

// Queue group names for load-balanced consumers. Workers in the same queue
// group share messages so each notification is dispatched once.
const (
	QueueNotificationWorkers = "notification-workers"
)

// LeadCreatedSubject returns the created subject scoped to a workspace.
// Example: leads.created.ws_8c21
func LeadCreatedSubject(workspaceID string) string {
	return SubjectLeadsCreated + "." + workspaceID
}

// LeadMergedSubject returns the merged subject scoped to a workspace.
func LeadMergedSubject(workspaceID string) string {
	return SubjectLeadsMerged + "." + workspaceID
}
