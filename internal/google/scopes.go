package google

import gmail "google.golang.org/api/gmail/v1"

// GmailScopes are requested for bring-your-own Gmail connections. They cover
// reading, labelling, drafting and sending mail.
var GmailScopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailComposeScope,
	gmail.GmailSendScope,
	gmail.GmailLabelsScope,
}
