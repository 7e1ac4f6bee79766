package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadSubjects(t *testing.T) {
	assert.Equal(t, "leads.created.ws-1", LeadCreatedSubject("ws-1"))
	assert.Equal(t, "leads.merged.ws-1", LeadMergedSubject("ws-1"))
}
