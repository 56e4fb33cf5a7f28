package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid(), "no-op spans carry no trace id")
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestEnabledProviderRecordsSpans(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		OTLPEndpoint: "http://127.0.0.1:4318",
		Site:         "test",
	}, nil)
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	// Nothing listens on the endpoint; shutting down must still return.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}
