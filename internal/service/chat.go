package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ChatConfig bounds the conversational endpoint.
type ChatConfig struct {
	ExcerptSize int
	Timeout     time.Duration
}

// ChatService streams answers grounded on a catalog excerpt. It keeps no
// transcript of its own.
type ChatService struct {
	model   port.ChatModel
	catalog port.CardCatalog
	cfg     ChatConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService creates a ChatService. Zero config values take the
// defaults of 10 cards and 30 seconds.
func NewChatService(
	model port.ChatModel,
	catalog port.CardCatalog,
	cfg ChatConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	if cfg.ExcerptSize <= 0 {
		cfg.ExcerptSize = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChatService{
		model:   model,
		catalog: catalog,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// SystemPrompt is the instruction sent ahead of every transcript.
func (s *ChatService) SystemPrompt() string {
	return chatSystemPrompt(s.catalog.Excerpt(s.cfg.ExcerptSize))
}

// ValidateTranscript checks that turns is a usable conversation.
func ValidateTranscript(turns []domain.ChatTurn) error {
	if len(turns) == 0 {
		return &domain.ErrValidation{Field: "messages", Message: "at least one message is required"}
	}
	for i, t := range turns {
		if t.Role != domain.RoleUser && t.Role != domain.RoleAssistant {
			return &domain.ErrValidation{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "role must be user or assistant",
			}
		}
	}
	last := turns[len(turns)-1]
	if last.Role != domain.RoleUser {
		return &domain.ErrValidation{Field: "messages", Message: "last message must come from the user"}
	}
	if strings.TrimSpace(last.Content) == "" {
		return &domain.ErrValidation{Field: "messages", Message: "last message is empty"}
	}
	return nil
}

// Stream sends the transcript to the chat model and forwards each delta to
// onDelta in arrival order.
func (s *ChatService) Stream(ctx context.Context, turns []domain.ChatTurn, onDelta func(string) error) error {
	if err := ValidateTranscript(turns); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "ChatService.Stream")
	defer span.End()
	span.SetAttributes(attribute.Int("chat.turns", len(turns)))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat", time.Since(start))
	}()

	if err := s.model.StreamChat(ctx, s.SystemPrompt(), turns, onDelta); err != nil {
		s.logger.Error("chat stream failed", zap.Int("turns", len(turns)), zap.Error(err))
		return fmt.Errorf("chat stream: %w", err)
	}
	return nil
}
