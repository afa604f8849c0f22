package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMessages struct {
	inserted []model.Message
	aiLogs   []model.AILog
	recent   []model.Message
}

func (f *fakeMessages) Insert(ctx context.Context, m model.Message) error {
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeMessages) ListRecent(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	return f.recent, nil
}

func (f *fakeMessages) InsertAILog(ctx context.Context, l model.AILog) error {
	f.aiLogs = append(f.aiLogs, l)
	return nil
}

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, message, conversationID string) (string, error) {
	return f.reply, f.err
}

type fakeFreeformChannel struct {
	sent    []string
	bodies  []string
	sendErr error
}

func (f *fakeFreeformChannel) SendFreeform(ctx context.Context, to, body string) (string, error) {
	f.sent = append(f.sent, to)
	f.bodies = append(f.bodies, body)
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "SM1", nil
}

func (f *fakeFreeformChannel) SendTemplate(ctx context.Context, to, contentSID string, variables map[string]string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeFreeformChannel) CreateContent(ctx context.Context, name, body, language string, variables []string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeFreeformChannel) SubmitApproval(ctx context.Context, contentSID, name, category string) error {
	return errors.New("not implemented")
}
func (f *fakeFreeformChannel) FetchApprovalStatus(ctx context.Context, contentSID string) (string, error) {
	return "", errors.New("not implemented")
}

// conversationStore is a lookup-capable variant of fakeConversations.
type conversationStore struct {
	fakeConversations
	byID map[string]*model.Conversation
}

func (f *conversationStore) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	return f.byID[id], nil
}

func TestRespondHappyPath(t *testing.T) {
	lookup := &conversationStore{byID: map[string]*model.Conversation{
		"conv-1": {ID: "conv-1", ShopID: "shop-1", CustomerPhone: "+2250701000001"},
	}}
	msgs := &fakeMessages{}
	ch := &fakeFreeformChannel{}
	svc := NewAssistantService(lookup, msgs, &fakeGenerator{reply: "Bonjour !"}, ch, zap.NewNop())

	reply, err := svc.Respond(context.Background(), "conv-1", "whatsapp:+2250701000001", "Avez-vous ce produit ?")
	require.NoError(t, err)
	assert.True(t, reply.Success)
	assert.Equal(t, "Bonjour !", reply.Response)

	// The agent message is persisted and the reply goes out on the channel.
	require.Len(t, msgs.inserted, 1)
	assert.Equal(t, model.RoleAgent, msgs.inserted[0].Role)
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "+2250701000001", ch.sent[0])

	// The audit log records the exchange.
	require.Len(t, msgs.aiLogs, 1)
	assert.Equal(t, "Avez-vous ce produit ?", msgs.aiLogs[0].Input)
	assert.Equal(t, "true", msgs.aiLogs[0].Metrics["send_success"])
}

func TestRespondUnknownConversation(t *testing.T) {
	svc := NewAssistantService(&conversationStore{byID: map[string]*model.Conversation{}},
		&fakeMessages{}, &fakeGenerator{reply: "x"}, &fakeFreeformChannel{}, zap.NewNop())

	_, err := svc.Respond(context.Background(), "missing", "+2250701000001", "hello")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestRespondGenerationFailureFallsBack(t *testing.T) {
	lookup := &conversationStore{byID: map[string]*model.Conversation{
		"conv-1": {ID: "conv-1", ShopID: "shop-1"},
	}}
	msgs := &fakeMessages{}
	ch := &fakeFreeformChannel{}
	svc := NewAssistantService(lookup, msgs, &fakeGenerator{err: errors.New("model overloaded")}, ch, zap.NewNop())

	reply, err := svc.Respond(context.Background(), "conv-1", "+2250701000001", "hello")
	require.NoError(t, err)

	// The customer still gets an answer; the failure shows in the envelope.
	assert.False(t, reply.Success)
	assert.NotEmpty(t, reply.Error)
	require.Len(t, ch.bodies, 1)
	assert.Equal(t, ch.bodies[0], reply.Response)
	assert.Contains(t, reply.Response, "Merci")
}

func TestRespondSendFailureReported(t *testing.T) {
	lookup := &conversationStore{byID: map[string]*model.Conversation{
		"conv-1": {ID: "conv-1", ShopID: "shop-1"},
	}}
	msgs := &fakeMessages{}
	ch := &fakeFreeformChannel{sendErr: errors.New("channel unavailable")}
	svc := NewAssistantService(lookup, msgs, &fakeGenerator{reply: "Bonjour !"}, ch, zap.NewNop())

	reply, err := svc.Respond(context.Background(), "conv-1", "+2250701000001", "hello")
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.Equal(t, "Bonjour !", reply.Response)
	require.Len(t, msgs.aiLogs, 1)
	assert.Equal(t, "false", msgs.aiLogs[0].Metrics["send_success"])
}
