package server

import (
	"fmt"
	"strings"
)

const (
	defaultMaxResults = 10
	defaultLabel      = "INBOX"
)

// EmailRequest is the body of POST /send and POST /draft.
type EmailRequest struct {
	To      string
	Subject string
	Body    string
	CC      string
	BCC     string
}

func sendPrompt(r EmailRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Send an email to %s with:\nSubject: %s\nBody: %s", r.To, r.Subject, r.Body)
	if r.CC != "" {
		fmt.Fprintf(&b, "\nCC: %s", r.CC)
	}
	if r.BCC != "" {
		fmt.Fprintf(&b, "\nBCC: %s", r.BCC)
	}
	return b.String()
}

func draftPrompt(r EmailRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an email draft to %s with:\nSubject: %s\nBody: %s", r.To, r.Subject, r.Body)
	if r.CC != "" {
		fmt.Fprintf(&b, "\nCC: %s", r.CC)
	}
	return b.String()
}

func emailsPrompt(max int, label string) string {
	return fmt.Sprintf("Fetch the %d most recent emails from the %s folder. "+
		"Show me the sender, subject, and a brief preview of each email.", max, label)
}

func draftsPrompt(max int) string {
	return fmt.Sprintf("List my %d most recent email drafts with their subjects and recipients.", max)
}

const labelsPrompt = "List all my Gmail labels."
