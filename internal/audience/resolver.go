package audience

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bobotcho/wacommerce/internal/repository"
)

// ErrEmptyAudience means the segment resolved to zero recipients. Callers
// must reject the dispatch request; this is not a no-op success.
var ErrEmptyAudience = errors.New("audience segment resolved to no recipients")

const (
	activeWindow = 30 * 24 * time.Hour
	newWindow    = 7 * 24 * time.Hour
)

// Resolver turns a named segment into a deduplicated recipient set.
type Resolver struct {
	conversations repository.ConversationsRepository
	now           func() time.Time
}

func NewResolver(conversations repository.ConversationsRepository) *Resolver {
	return &Resolver{conversations: conversations, now: time.Now}
}

// Resolve returns the segment's recipient phone numbers, deduplicated and in
// a deterministic (sorted) order. Returns ErrEmptyAudience when no
// conversation matches.
func (r *Resolver) Resolve(ctx context.Context, segment Segment) ([]string, error) {
	var (
		phones []string
		err    error
		now    = r.now()
	)

	switch segment {
	case SegmentAll:
		phones, err = r.conversations.ListAllPhones(ctx)
	case SegmentActive30d:
		phones, err = r.conversations.ListActivePhonesSince(ctx, now.Add(-activeWindow))
	case SegmentInactive30d:
		phones, err = r.conversations.ListInactivePhonesBefore(ctx, now.Add(-activeWindow))
	case SegmentNew7d:
		phones, err = r.conversations.ListPhonesCreatedSince(ctx, now.Add(-newWindow))
	default:
		return nil, fmt.Errorf("unknown audience segment %q", segment)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve segment %s: %w", segment, err)
	}

	seen := make(map[string]struct{}, len(phones))
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)

	if len(out) == 0 {
		return nil, ErrEmptyAudience
	}
	return out, nil
}
