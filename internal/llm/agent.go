package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/uniassist/internal/config"
	"github.com/raphaelgruber/uniassist/internal/metrics"
)

// Agent turns a composed prompt into a reply. Its configuration is fixed at
// construction and it keeps no state between calls: everything the model
// should know arrives in the prompt.
type Agent struct {
	gen     Generator
	system  string
	timeout time.Duration
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewAgent creates an Agent. A zero timeout disables the per-call deadline.
func NewAgent(gen Generator, persona Persona, timeout time.Duration, collector *metrics.Collector, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		gen:     gen,
		system:  persona.SystemPrompt(),
		timeout: timeout,
		metrics: collector,
		logger:  logger,
	}
}

// NewAgentFromConfig wires the provider, persona and timeout from cfg.
func NewAgentFromConfig(ctx context.Context, cfg config.Config, collector *metrics.Collector, logger *slog.Logger) (*Agent, error) {
	persona, err := LoadPersona(cfg.PersonaFile, cfg.Institution)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewAgent(gen, persona, cfg.AgentTimeout, collector, logger), nil
}

// Respond makes a single attempt to answer prompt. Every failure, including
// an empty reply, wraps ErrAgent; credential and quota errors also wrap
// ErrFatalAPI.
func (a *Agent) Respond(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := a.gen.Generate(ctx, a.system, prompt)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}
	a.metrics.RecordTiming(metrics.OpAgentRespond, time.Since(start), err)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warn("agent timed out", "timeout", a.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrAgent, wrapFatalError(err))
	}

	a.logger.Debug("agent replied", "prompt_chars", len(prompt), "reply_chars", len(reply), "duration", time.Since(start))
	return strings.TrimSpace(reply), nil
}
