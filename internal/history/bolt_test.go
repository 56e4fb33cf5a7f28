package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := OpenBoltStore(filepath.Join(t.TempDir(), "history.bolt"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "history.bolt")
	ctx := context.Background()
	want := []models.Turn{models.UserTurn("tuition?"), models.AssistantTurn("See the fee schedule.")}

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "55", want))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "55")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
