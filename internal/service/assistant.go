package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bobotcho/wacommerce/internal/ai"
	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/bobotcho/wacommerce/internal/util"
	"go.uber.org/zap"
)

var ErrConversationNotFound = errors.New("conversation not found")

// fallbackReply is sent when generation fails so the customer never faces
// silence.
const fallbackReply = "Merci pour votre message. Nos conseillers sont actuellement indisponibles, " +
	"mais nous traiterons votre demande en priorité dès que possible. Merci de votre patience !"

// Reply is the structured result envelope of one assistant turn. Internal
// failures surface here as Success=false, never as a server error.
type Reply struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// AssistantService answers one inbound customer message: generate a reply,
// persist it, send it on the channel, and record the audit log.
type AssistantService struct {
	conversations repository.ConversationsRepository
	messages      repository.MessagesRepository
	generator     ai.Generator
	channel       channel.Channel
	log           *zap.Logger
}

func NewAssistantService(
	conversations repository.ConversationsRepository,
	messages repository.MessagesRepository,
	generator ai.Generator,
	ch channel.Channel,
	log *zap.Logger,
) *AssistantService {
	return &AssistantService{
		conversations: conversations,
		messages:      messages,
		generator:     generator,
		channel:       ch,
		log:           log,
	}
}

// Respond handles one customer message end to end. Only a missing
// conversation is returned as an error; everything past that point degrades
// into the reply envelope.
func (s *AssistantService) Respond(ctx context.Context, conversationID, from, body string) (Reply, error) {
	start := time.Now()

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return Reply{}, err
	}
	if conv == nil {
		return Reply{}, ErrConversationNotFound
	}

	text, genErr := s.generator.Generate(ctx, body, conversationID)
	if genErr != nil {
		s.log.Error("generate reply", zap.String("conversation_id", conversationID), zap.Error(genErr))
		text = fallbackReply
	}

	if err := s.messages.Insert(ctx, model.Message{
		ID:             util.NewID(),
		ConversationID: conversationID,
		ShopID:         conv.ShopID,
		Role:           model.RoleAgent,
		Content:        text,
		Metadata:       model.JSONMap{"source": "assistant", "customer_phone": from},
	}); err != nil {
		s.log.Error("persist agent message", zap.String("conversation_id", conversationID), zap.Error(err))
	}

	sid, sendErr := s.channel.SendFreeform(ctx, util.NormalizePhone(from), text)
	if sendErr != nil {
		s.log.Error("send assistant reply", zap.String("conversation_id", conversationID), zap.Error(sendErr))
	}

	latency := time.Since(start).Milliseconds()

	if err := s.messages.InsertAILog(ctx, model.AILog{
		ID:             util.NewID(),
		ShopID:         conv.ShopID,
		ConversationID: conversationID,
		Input:          body,
		Output:         text,
		Metrics: model.JSONMap{
			"latency_ms":   strconv.FormatInt(latency, 10),
			"message_sid":  sid,
			"send_success": strconv.FormatBool(sendErr == nil),
		},
	}); err != nil {
		s.log.Warn("persist ai log", zap.String("conversation_id", conversationID), zap.Error(err))
	}

	reply := Reply{Success: genErr == nil && sendErr == nil, Response: text, LatencyMS: latency}
	if genErr != nil {
		reply.Error = genErr.Error()
	} else if sendErr != nil {
		reply.Error = sendErr.Error()
	}
	return reply, nil
}
