package audience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConversations struct {
	all      []string
	active   []string
	inactive []string
	created  []string
	err      error

	activeCutoff   time.Time
	inactiveCutoff time.Time
	createdCutoff  time.Time
}

func (f *fakeConversations) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	return nil, nil
}

func (f *fakeConversations) ListAllPhones(ctx context.Context) ([]string, error) {
	return f.all, f.err
}

func (f *fakeConversations) ListActivePhonesSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	f.activeCutoff = cutoff
	return f.active, f.err
}

func (f *fakeConversations) ListInactivePhonesBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	f.inactiveCutoff = cutoff
	return f.inactive, f.err
}

func (f *fakeConversations) ListPhonesCreatedSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	f.createdCutoff = cutoff
	return f.created, f.err
}

func TestResolveDeduplicatesAndSorts(t *testing.T) {
	repo := &fakeConversations{all: []string{
		"+2250701000003",
		"+2250701000001",
		"+2250701000002",
		"+2250701000001",
		"",
		"+2250701000002",
	}}
	r := NewResolver(repo)

	got, err := r.Resolve(context.Background(), SegmentAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"+2250701000001", "+2250701000002", "+2250701000003"}, got)

	// Resolving twice against the same data yields the same set.
	again, err := r.Resolve(context.Background(), SegmentAll)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestResolveEmptyAudience(t *testing.T) {
	r := NewResolver(&fakeConversations{all: []string{""}})

	_, err := r.Resolve(context.Background(), SegmentAll)
	assert.ErrorIs(t, err, ErrEmptyAudience)
}

func TestResolveErrorPassthrough(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(&fakeConversations{err: boom})

	_, err := r.Resolve(context.Background(), SegmentActive30d)
	assert.ErrorIs(t, err, boom)
}

func TestResolveUnknownSegment(t *testing.T) {
	r := NewResolver(&fakeConversations{})

	_, err := r.Resolve(context.Background(), Segment("vip"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyAudience)
}

func TestResolveSegmentWindows(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	repo := &fakeConversations{
		active:   []string{"+2250701000001"},
		inactive: []string{"+2250701000002"},
		created:  []string{"+2250701000003"},
	}
	r := NewResolver(repo)
	r.now = func() time.Time { return now }

	_, err := r.Resolve(context.Background(), SegmentActive30d)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), repo.activeCutoff)

	_, err = r.Resolve(context.Background(), SegmentInactive30d)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), repo.inactiveCutoff)

	_, err = r.Resolve(context.Background(), SegmentNew7d)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), repo.createdCutoff)
}

func TestParseSegment(t *testing.T) {
	cases := []struct {
		in    string
		want  Segment
		valid bool
	}{
		{"", SegmentAll, true},
		{"all", SegmentAll, true},
		{" Active_30D ", SegmentActive30d, true},
		{"inactive_30d", SegmentInactive30d, true},
		{"new_7d", SegmentNew7d, true},
		{"vip", SegmentAll, false},
	}
	for _, tc := range cases {
		got, ok := ParseSegment(tc.in)
		assert.Equal(t, tc.valid, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestSegmentForTrigger(t *testing.T) {
	assert.Equal(t, SegmentNew7d, SegmentForTrigger(model.TriggerNewCustomer))
	assert.Equal(t, SegmentInactive30d, SegmentForTrigger(model.TriggerInactive30d))
	assert.Equal(t, SegmentActive30d, SegmentForTrigger(model.TriggerCartAbandoned))
	assert.Equal(t, SegmentAll, SegmentForTrigger(model.TriggerOrderCreated))
	assert.Equal(t, SegmentActive30d, SegmentForTrigger(model.TriggerPostPurchase))
	assert.Equal(t, SegmentAll, SegmentForTrigger(model.TriggerType("unknown")))
}
