// Package service holds the portal's business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/uniassist/internal/history"
	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/raphaelgruber/uniassist/internal/prompt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrEmptyMessage is returned for blank chat input.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrHistorySave means the agent replied but the updated history could
	// not be persisted. The accompanying ChatResult is still valid.
	ErrHistorySave = errors.New("history save failed")
)

const historySaveWarning = "Your message was answered but could not be saved to your conversation history."

// Extractor returns the plain text of a document.
type Extractor interface {
	Extract(path string) (string, error)
}

// Responder answers a composed prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// ChatResult is the outcome of one chat exchange.
type ChatResult struct {
	Reply   string `json:"reply"`
	Warning string `json:"warning,omitempty"`
}

// ChatDeps are the collaborators of a ChatService. Metrics, Logger and Tracer
// are optional.
type ChatDeps struct {
	Extractor    Extractor
	Store        history.Store
	Composer     *prompt.Composer
	Agent        Responder
	ReferenceDoc string
	Metrics      *metrics.Collector
	Logger       *slog.Logger
	Tracer       trace.Tracer
}

// ChatService runs the chat exchange for guests and identified users.
// An empty user id means a guest: guests start from an empty history and
// nothing they say is stored.
type ChatService struct {
	extractor    Extractor
	store        history.Store
	composer     *prompt.Composer
	agent        Responder
	referenceDoc string
	locks        *history.Locker
	metrics      *metrics.Collector
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewChatService creates a ChatService.
func NewChatService(deps ChatDeps) *ChatService {
	s := &ChatService{
		extractor:    deps.Extractor,
		store:        deps.Store,
		composer:     deps.Composer,
		agent:        deps.Agent,
		referenceDoc: deps.ReferenceDoc,
		locks:        history.NewLocker(),
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		tracer:       deps.Tracer,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("github.com/raphaelgruber/uniassist/internal/service")
	}
	return s
}

// History returns the stored conversation for userID. Guests get an empty history.
func (s *ChatService) History(ctx context.Context, userID string) ([]models.Turn, error) {
	if userID == "" {
		return []models.Turn{}, nil
	}
	var turns []models.Turn
	err := s.metrics.Time(metrics.OpHistoryLoad, func() error {
		var err error
		turns, err = s.store.Load(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return turns, nil
}

// ClearHistory deletes the stored conversation for userID.
func (s *ChatService) ClearHistory(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.store.Delete(ctx, userID)
}

// Send answers message for userID and, for identified users, appends the
// exchange to their history.
//
// Reference extraction and history load failures are logged and the exchange
// continues with empty inputs. An agent failure returns its error and stores
// nothing. A save failure returns the reply together with an ErrHistorySave error.
// Exchanges for the same user are serialized from load through save.
func (s *ChatService) Send(ctx context.Context, userID, message string) (ChatResult, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.Send")
	defer span.End()

	guest := userID == ""
	span.SetAttributes(attribute.Bool("chat.guest", guest))

	if strings.TrimSpace(message) == "" {
		span.SetStatus(codes.Error, "empty message")
		return ChatResult{}, ErrEmptyMessage
	}
	if !guest {
		if err := history.ValidateUserID(userID); err != nil {
			span.SetStatus(codes.Error, "invalid user id")
			return ChatResult{}, err
		}
		unlock := s.locks.Lock(userID)
		defer unlock()
	}

	referenceText := s.referenceText(ctx)

	turns := []models.Turn{}
	if !guest {
		turns = s.loadForExchange(ctx, userID)
	}
	turns = append(turns, models.UserTurn(message))

	promptText := s.composer.Compose(referenceText, turns, message)
	span.SetAttributes(attribute.Int("chat.prompt_chars", len(promptText)), attribute.Int("chat.history_turns", len(turns)))

	reply, err := s.respond(ctx, promptText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent failure")
		s.logger.Error("agent failed", "error", err, "guest", guest)
		return ChatResult{}, err
	}
	turns = append(turns, models.AssistantTurn(reply))

	result := ChatResult{Reply: reply}
	s.metrics.RecordExchange(guest)

	if guest {
		return result, nil
	}
	if err := s.save(ctx, userID, turns); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to save chat history", "error", err, "user_id", userID)
		result.Warning = historySaveWarning
		return result, fmt.Errorf("%w: %w", ErrHistorySave, err)
	}
	return result, nil
}

func (s *ChatService) referenceText(ctx context.Context) string {
	_, span := s.tracer.Start(ctx, "document.Extract")
	defer span.End()

	start := time.Now()
	text, err := s.extractor.Extract(s.referenceDoc)
	s.metrics.RecordTiming(metrics.OpDocumentExtract, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("reference document unavailable, continuing without it", "error", err, "path", s.referenceDoc)
		return ""
	}
	span.SetAttributes(attribute.Int("document.chars", len(text)))
	return text
}

func (s *ChatService) loadForExchange(ctx context.Context, userID string) []models.Turn {
	ctx, span := s.tracer.Start(ctx, "history.Load")
	defer span.End()

	turns, err := s.History(ctx, userID)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("could not load chat history, starting empty", "error", err, "user_id", userID)
		return []models.Turn{}
	}
	return turns
}

func (s *ChatService) respond(ctx context.Context, promptText string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "agent.Respond")
	defer span.End()
	return s.agent.Respond(ctx, promptText)
}

func (s *ChatService) save(ctx context.Context, userID string, turns []models.Turn) error {
	ctx, span := s.tracer.Start(ctx, "history.Save")
	defer span.End()
	return s.metrics.Time(metrics.OpHistorySave, func() error {
		return s.store.Save(ctx, userID, turns)
	})
}
