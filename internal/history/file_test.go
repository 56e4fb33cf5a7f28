package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewFileStore(filepath.Join(t.TempDir(), "conversation_histories"))
	})
}

func TestFileStoreCreatesDirectoryOnFirstSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "conversation_histories")
	s := NewFileStore(dir)

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err), "directory must not exist before first save")

	require.NoError(t, s.Save(context.Background(), "7", []models.Turn{models.UserTurn("hello")}))
	assert.FileExists(t, filepath.Join(dir, "7_history.json"))
}

func TestFileStoreWritesJSONArray(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	turns := []models.Turn{
		models.UserTurn("What is the admission deadline?"),
		models.AssistantTurn("Deadlines vary by semester."),
	}
	require.NoError(t, s.Save(context.Background(), "7", turns))

	b, err := os.ReadFile(filepath.Join(dir, "7_history.json"))
	require.NoError(t, err)

	var raw []map[string]string
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, []map[string]string{
		{"role": "user", "message": "What is the admission deadline?"},
		{"role": "assistant", "message": "Deadlines vary by semester."},
	}, raw)
	assert.Contains(t, string(b), "\n    {", "history files are indented with four spaces")
}

func TestFileStoreEmptyHistoryEncodesAsArray(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save(context.Background(), "7", nil))

	b, err := os.ReadFile(filepath.Join(dir, "7_history.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(context.Background(), "7", []models.Turn{models.UserTurn("again")}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "7_history.json", entries[0].Name())
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7_history.json"), []byte("{not json"), 0o644))

	_, err := NewFileStore(dir).Load(context.Background(), "7")
	assert.ErrorContains(t, err, "decode history")
}

func TestFileStoreReadsLegacyFiles(t *testing.T) {
	dir := t.TempDir()
	legacy := `[
    {
        "role": "user",
        "message": "hi"
    },
    {
        "role": "assistant",
        "message": "Hello! How can I help with your admission?"
    }
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3_history.json"), []byte(legacy), 0o644))

	got, err := NewFileStore(dir).Load(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, []models.Turn{
		models.UserTurn("hi"),
		models.AssistantTurn("Hello! How can I help with your admission?"),
	}, got)
}
