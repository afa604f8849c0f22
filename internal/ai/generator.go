package ai

import "context"

// Generator produces an assistant reply for one customer message. The
// retrieval-augmented generation behind it is an external collaborator; this
// interface is the whole contract.
type Generator interface {
	Generate(ctx context.Context, message, conversationID string) (string, error)
}
