package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records its inputs and returns a canned result.
type fakeGenerator struct {
	reply  string
	err    error
	block  bool
	system string
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestAgentRespond(t *testing.T) {
	gen := &fakeGenerator{reply: "  Deadlines vary by semester.\n"}
	collector := metrics.NewCollector()
	persona := DefaultPersona("DIU")
	agent := NewAgent(gen, persona, time.Second, collector, nil)

	reply, err := agent.Respond(context.Background(), "What is the admission deadline?")

	require.NoError(t, err)
	assert.Equal(t, "Deadlines vary by semester.", reply)
	assert.Equal(t, "What is the admission deadline?", gen.prompt)
	assert.Equal(t, persona.SystemPrompt(), gen.system)

	snap := collector.Snapshot()
	require.NotNil(t, snap.AgentRespond)
	assert.Equal(t, int64(1), snap.AgentRespond.Count)
	assert.Zero(t, snap.AgentRespond.Failures)
}

func TestAgentRespondFailures(t *testing.T) {
	tests := []struct {
		name      string
		gen       *fakeGenerator
		wantFatal bool
		wantIs    error
	}{
		{"network", &fakeGenerator{err: errors.New("connection refused")}, false, nil},
		{"quota", &fakeGenerator{err: errors.New("429: rate limit exceeded")}, true, nil},
		{"empty reply", &fakeGenerator{reply: "   "}, false, ErrEmptyReply},
		{"timeout", &fakeGenerator{block: true}, false, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := metrics.NewCollector()
			agent := NewAgent(tt.gen, DefaultPersona("DIU"), 20*time.Millisecond, collector, nil)

			reply, err := agent.Respond(context.Background(), "hello")

			assert.Empty(t, reply)
			assert.ErrorIs(t, err, ErrAgent)
			assert.Equal(t, tt.wantFatal, errors.Is(err, ErrFatalAPI))
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.Equal(t, int64(1), collector.Snapshot().AgentRespond.Failures)
		})
	}
}

func TestAgentWithoutTimeout(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	agent := NewAgent(gen, DefaultPersona("DIU"), 0, nil, nil)

	reply, err := agent.Respond(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}
