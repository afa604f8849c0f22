package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/jobs"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCampaigns struct {
	byID    map[string]*model.Campaign
	sending []string
}

func (f *fakeCampaigns) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	return f.byID[id], nil
}

func (f *fakeCampaigns) MarkSending(ctx context.Context, id string) error {
	f.sending = append(f.sending, id)
	return nil
}

func (f *fakeCampaigns) UpdateCounts(ctx context.Context, id string, sent, delivered int) error {
	return nil
}

func (f *fakeCampaigns) Finish(ctx context.Context, id string, status model.CampaignStatus, sent, delivered int) error {
	return nil
}

type fakeTemplates struct {
	byName map[string]*model.Template
}

func (f *fakeTemplates) GetByName(ctx context.Context, name string) (*model.Template, error) {
	return f.byName[name], nil
}

func (f *fakeTemplates) List(ctx context.Context) ([]model.Template, error) { return nil, nil }
func (f *fakeTemplates) Upsert(ctx context.Context, t model.Template) error { return nil }
func (f *fakeTemplates) UpdateStatus(ctx context.Context, name string, status model.TemplateStatus) error {
	return nil
}
func (f *fakeTemplates) ListPendingWithContentSID(ctx context.Context) ([]model.Template, error) {
	return nil, nil
}

type fakeConversations struct {
	phones []string
}

func (f *fakeConversations) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	return nil, nil
}
func (f *fakeConversations) ListAllPhones(ctx context.Context) ([]string, error) {
	return f.phones, nil
}
func (f *fakeConversations) ListActivePhonesSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	return f.phones, nil
}
func (f *fakeConversations) ListInactivePhonesBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	return f.phones, nil
}
func (f *fakeConversations) ListPhonesCreatedSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	return f.phones, nil
}

func newLaunchFixture(t *testing.T, camps *fakeCampaigns, tmpls *fakeTemplates, convs *fakeConversations) (*CampaignService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	dbx := sqlx.NewDb(db, "mysql")

	enq := jobs.NewEnqueuer(dbx, repository.NewJobsRepository(dbx), repository.NewOutboxRepository(dbx), "dispatch.jobs")
	svc := NewCampaignService(camps, gate.New(tmpls), audience.NewResolver(convs), enq, zap.NewNop())
	return svc, mock
}

func approvedTemplate(name string) *model.Template {
	return &model.Template{Name: name, Status: model.TemplateApproved, ContentSID: "HX123"}
}

func TestLaunchHappyPath(t *testing.T) {
	camps := &fakeCampaigns{byID: map[string]*model.Campaign{
		"camp-1": {ID: "camp-1", Name: "Promo", Status: model.CampaignDraft},
	}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	convs := &fakeConversations{phones: []string{"+2250701000002", "+2250701000001", "+2250701000001"}}
	svc, mock := newLaunchFixture(t, camps, tmpls, convs)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO dispatch_jobs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := svc.Launch(context.Background(), "camp-1", "promo", audience.SegmentAll, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.TaskID)
	// Two after dedup.
	assert.Equal(t, 2, res.EstimatedRecipients)
	assert.Equal(t, []string{"camp-1"}, camps.sending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLaunchUnknownCampaign(t *testing.T) {
	svc, _ := newLaunchFixture(t, &fakeCampaigns{byID: map[string]*model.Campaign{}},
		&fakeTemplates{}, &fakeConversations{})

	_, err := svc.Launch(context.Background(), "missing", "promo", audience.SegmentAll, nil)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestLaunchRejectsUnapprovedTemplate(t *testing.T) {
	camps := &fakeCampaigns{byID: map[string]*model.Campaign{"camp-1": {ID: "camp-1"}}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{
		"promo": {Name: "promo", Status: model.TemplateDraft, ContentSID: "HX123"},
	}}
	convs := &fakeConversations{phones: []string{"+2250701000001"}}
	svc, mock := newLaunchFixture(t, camps, tmpls, convs)

	_, err := svc.Launch(context.Background(), "camp-1", "promo", audience.SegmentAll, nil)
	var notApproved *gate.NotApprovedError
	assert.ErrorAs(t, err, &notApproved)
	// Nothing may reach the queue on a gate rejection.
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, camps.sending)
}

func TestLaunchRejectsEmptyAudience(t *testing.T) {
	camps := &fakeCampaigns{byID: map[string]*model.Campaign{"camp-1": {ID: "camp-1"}}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	svc, mock := newLaunchFixture(t, camps, tmpls, &fakeConversations{})

	_, err := svc.Launch(context.Background(), "camp-1", "promo", audience.SegmentAll, nil)
	assert.ErrorIs(t, err, audience.ErrEmptyAudience)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, camps.sending)
}

func TestLaunchEnqueueFailure(t *testing.T) {
	camps := &fakeCampaigns{byID: map[string]*model.Campaign{"camp-1": {ID: "camp-1"}}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	convs := &fakeConversations{phones: []string{"+2250701000001"}}
	svc, mock := newLaunchFixture(t, camps, tmpls, convs)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO dispatch_jobs").WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := svc.Launch(context.Background(), "camp-1", "promo", audience.SegmentAll, nil)
	assert.Error(t, err)
	// The campaign is not flipped to sending when the job was never stored.
	assert.Empty(t, camps.sending)
}
