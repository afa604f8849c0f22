package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/dispatch"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAutomations struct {
	active     []model.Automation
	increments map[string]int
	listErr    error
}

func (f *fakeAutomations) ListActive(ctx context.Context) ([]model.Automation, error) {
	return f.active, f.listErr
}

func (f *fakeAutomations) IncrementExecutions(ctx context.Context, id string) error {
	if f.increments == nil {
		f.increments = map[string]int{}
	}
	f.increments[id]++
	return nil
}

type fakeTemplates struct {
	byName        map[string]*model.Template
	pending       []model.Template
	statusUpdates map[string]model.TemplateStatus
	updateErr     map[string]error
}

func (f *fakeTemplates) GetByName(ctx context.Context, name string) (*model.Template, error) {
	return f.byName[name], nil
}

func (f *fakeTemplates) List(ctx context.Context) ([]model.Template, error) { return nil, nil }
func (f *fakeTemplates) Upsert(ctx context.Context, t model.Template) error { return nil }

func (f *fakeTemplates) UpdateStatus(ctx context.Context, name string, status model.TemplateStatus) error {
	if err := f.updateErr[name]; err != nil {
		return err
	}
	if f.statusUpdates == nil {
		f.statusUpdates = map[string]model.TemplateStatus{}
	}
	f.statusUpdates[name] = status
	return nil
}

func (f *fakeTemplates) ListPendingWithContentSID(ctx context.Context) ([]model.Template, error) {
	return f.pending, nil
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

type fakeChannel struct {
	sent             []string
	sendErr          error
	approvalsBySID   map[string]string
	approvalErrBySID map[string]error
}

func (f *fakeChannel) SendTemplate(ctx context.Context, to, contentSID string, variables map[string]string) (string, error) {
	f.sent = append(f.sent, to)
	return "SM1", f.sendErr
}

func (f *fakeChannel) SendFreeform(ctx context.Context, to, body string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeChannel) CreateContent(ctx context.Context, name, body, language string, variables []string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeChannel) SubmitApproval(ctx context.Context, contentSID, name, category string) error {
	return errors.New("not implemented")
}

func (f *fakeChannel) FetchApprovalStatus(ctx context.Context, contentSID string) (string, error) {
	if err := f.approvalErrBySID[contentSID]; err != nil {
		return "", err
	}
	return f.approvalsBySID[contentSID], nil
}

type nopProgress struct{}

func (nopProgress) WriteSnapshot(ctx context.Context, jobID string, p model.Progress) error {
	return nil
}

type nopSendLog struct{}

func (nopSendLog) InsertBatch(ctx context.Context, outcomes []model.SendOutcome) error { return nil }

type nopCampaigns struct{}

func (nopCampaigns) UpdateCounts(ctx context.Context, id string, sent, delivered int) error {
	return nil
}
func (nopCampaigns) Finish(ctx context.Context, id string, status model.CampaignStatus, sent, delivered int) error {
	return nil
}

func newTestScheduler(autos *fakeAutomations, tmpls *fakeTemplates, convs *fakeConversations, ch *fakeChannel) *Scheduler {
	disp := dispatch.NewDispatcher(ch, nopCampaigns{}, nopProgress{}, nopSendLog{}, zap.NewNop(), dispatch.Config{
		PaceInterval:    time.Millisecond,
		CheckpointEvery: 10,
		Kind:            "automation",
	})
	return New(autos, tmpls, gate.New(tmpls), audience.NewResolver(convs), disp, ch, zap.NewNop(), Config{})
}

func approvedTemplate(name string) *model.Template {
	return &model.Template{Name: name, Status: model.TemplateApproved, ContentSID: "HX123"}
}

func TestRunAutomationsDispatches(t *testing.T) {
	autos := &fakeAutomations{active: []model.Automation{
		{ID: "auto-1", Name: "welcome", TriggerType: model.TriggerNewCustomer, TemplateName: "promo"},
	}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	convs := &fakeConversations{phones: []string{"+2250701000001", "+2250701000002"}}
	ch := &fakeChannel{}
	s := newTestScheduler(autos, tmpls, convs, ch)

	checked, executed := s.RunAutomations(context.Background())
	assert.Equal(t, 1, checked)
	assert.Equal(t, 1, executed)
	assert.Len(t, ch.sent, 2)
	// One bump per tick that dispatched, not per recipient.
	assert.Equal(t, 1, autos.increments["auto-1"])
}

func TestRunAutomationsEmptyAudience(t *testing.T) {
	autos := &fakeAutomations{active: []model.Automation{
		{ID: "auto-1", Name: "welcome", TriggerType: model.TriggerNewCustomer, TemplateName: "promo"},
	}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	ch := &fakeChannel{}
	s := newTestScheduler(autos, tmpls, &fakeConversations{}, ch)

	checked, executed := s.RunAutomations(context.Background())
	assert.Equal(t, 1, checked)
	assert.Equal(t, 0, executed)
	assert.Empty(t, ch.sent)
	// A zero-audience tick must leave the executions counter untouched.
	assert.Zero(t, autos.increments["auto-1"])
}

func TestRunAutomationsUnapprovedTemplate(t *testing.T) {
	autos := &fakeAutomations{active: []model.Automation{
		{ID: "auto-1", Name: "welcome", TriggerType: model.TriggerNewCustomer, TemplateName: "promo"},
	}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{
		"promo": {Name: "promo", Status: model.TemplatePending, ContentSID: "HX123"},
	}}
	convs := &fakeConversations{phones: []string{"+2250701000001"}}
	ch := &fakeChannel{}
	s := newTestScheduler(autos, tmpls, convs, ch)

	_, executed := s.RunAutomations(context.Background())
	assert.Equal(t, 0, executed)
	assert.Empty(t, ch.sent)
	assert.Zero(t, autos.increments["auto-1"])
}

func TestRunAutomationsIsolatesFailures(t *testing.T) {
	// First automation points at a missing template, second one is fine.
	autos := &fakeAutomations{active: []model.Automation{
		{ID: "auto-1", Name: "broken", TriggerType: model.TriggerOrderCreated, TemplateName: "missing"},
		{ID: "auto-2", Name: "welcome", TriggerType: model.TriggerOrderCreated, TemplateName: "promo"},
	}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	convs := &fakeConversations{phones: []string{"+2250701000001"}}
	ch := &fakeChannel{}
	s := newTestScheduler(autos, tmpls, convs, ch)

	checked, executed := s.RunAutomations(context.Background())
	assert.Equal(t, 2, checked)
	assert.Equal(t, 1, executed)
	assert.Equal(t, 1, autos.increments["auto-2"])
}

func TestRunAutomationsMisconfigured(t *testing.T) {
	autos := &fakeAutomations{active: []model.Automation{
		{ID: "auto-1", Name: "no-template", TriggerType: model.TriggerNewCustomer},
		{ID: "auto-2", Name: "bad-trigger", TriggerType: model.TriggerType("weekly"), TemplateName: "promo"},
	}}
	tmpls := &fakeTemplates{byName: map[string]*model.Template{"promo": approvedTemplate("promo")}}
	s := newTestScheduler(autos, tmpls, &fakeConversations{phones: []string{"+2250701000001"}}, &fakeChannel{})

	_, executed := s.RunAutomations(context.Background())
	assert.Equal(t, 0, executed)
}

func TestPollApprovalsUpdates(t *testing.T) {
	tmpls := &fakeTemplates{pending: []model.Template{
		{Name: "promo", Status: model.TemplatePending, ContentSID: "HX1"},
		{Name: "relance", Status: model.TemplatePending, ContentSID: "HX2"},
		{Name: "bienvenue", Status: model.TemplatePending, ContentSID: "HX3"},
	}}
	ch := &fakeChannel{approvalsBySID: map[string]string{
		"HX1": "approved",
		"HX2": "rejected",
		"HX3": "pending",
	}}
	s := newTestScheduler(&fakeAutomations{}, tmpls, &fakeConversations{}, ch)

	checked, updated := s.PollApprovals(context.Background())
	assert.Equal(t, 3, checked)
	assert.Equal(t, 2, updated)
	assert.Equal(t, model.TemplateApproved, tmpls.statusUpdates["promo"])
	assert.Equal(t, model.TemplateRejected, tmpls.statusUpdates["relance"])
	// A still-pending verdict writes nothing.
	_, touched := tmpls.statusUpdates["bienvenue"]
	assert.False(t, touched)
}

func TestPollApprovalsIsolatesFailures(t *testing.T) {
	tmpls := &fakeTemplates{pending: []model.Template{
		{Name: "broken", Status: model.TemplatePending, ContentSID: "HX1"},
		{Name: "promo", Status: model.TemplatePending, ContentSID: "HX2"},
	}}
	ch := &fakeChannel{
		approvalsBySID:   map[string]string{"HX2": "approved"},
		approvalErrBySID: map[string]error{"HX1": errors.New("channel timeout")},
	}
	s := newTestScheduler(&fakeAutomations{}, tmpls, &fakeConversations{}, ch)

	checked, updated := s.PollApprovals(context.Background())
	assert.Equal(t, 2, checked)
	assert.Equal(t, 1, updated)
	assert.Equal(t, model.TemplateApproved, tmpls.statusUpdates["promo"])
}

func TestPollApprovalsIgnoresGarbageVerdict(t *testing.T) {
	tmpls := &fakeTemplates{pending: []model.Template{
		{Name: "promo", Status: model.TemplatePending, ContentSID: "HX1"},
	}}
	ch := &fakeChannel{approvalsBySID: map[string]string{"HX1": "percolating"}}
	s := newTestScheduler(&fakeAutomations{}, tmpls, &fakeConversations{}, ch)

	_, updated := s.PollApprovals(context.Background())
	assert.Equal(t, 0, updated)
	require.Empty(t, tmpls.statusUpdates)
}
