package channel

import "context"

// Channel is the outbound WhatsApp messaging collaborator. Calls are
// synchronous remote operations with no implicit retry; callers own their
// retry policy.
type Channel interface {
	// SendFreeform sends a plain-text message inside the 24h session window.
	SendFreeform(ctx context.Context, to, body string) (sid string, err error)
	// SendTemplate sends an approved reusable template identified by its
	// content SID, with positional variable bindings.
	SendTemplate(ctx context.Context, to, contentSID string, variables map[string]string) (sid string, err error)
	// CreateContent registers a new template body with the channel and
	// returns its content SID.
	CreateContent(ctx context.Context, name, body, language string, variables []string) (contentSID string, err error)
	// SubmitApproval submits a registered template for WhatsApp approval.
	SubmitApproval(ctx context.Context, contentSID, name, category string) error
	// FetchApprovalStatus reports the channel's current approval verdict.
	FetchApprovalStatus(ctx context.Context, contentSID string) (status string, err error)
}
