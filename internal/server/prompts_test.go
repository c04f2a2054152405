package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendPrompt(t *testing.T) {
	got := sendPrompt(EmailRequest{To: "a@example.com", Subject: "Lunch", Body: "Noon?", CC: "c@example.com"})
	assert.Equal(t, "Send an email to a@example.com with:\nSubject: Lunch\nBody: Noon?\nCC: c@example.com", got)
}

func TestDraftPromptIgnoresBCC(t *testing.T) {
	got := draftPrompt(EmailRequest{To: "a@example.com", Subject: "Lunch", Body: "Noon?", BCC: "b@example.com"})
	assert.Equal(t, "Create an email draft to a@example.com with:\nSubject: Lunch\nBody: Noon?", got)
}

func TestListPrompts(t *testing.T) {
	assert.Contains(t, emailsPrompt(5, "STARRED"), "Fetch the 5 most recent emails from the STARRED folder.")
	assert.Equal(t, "List my 2 most recent email drafts with their subjects and recipients.", draftsPrompt(2))
}
