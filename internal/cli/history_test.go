package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/uniassist/internal/history"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("UNIASSIST_LOG_FILE", filepath.Join(t.TempDir(), "cli.log"))
	historyJSON = false
	extractStats = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func seedHistory(t *testing.T, userID string, turns []models.Turn) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("UNIASSIST_HISTORY_BACKEND", "file")
	t.Setenv("UNIASSIST_HISTORY_DIR", dir)
	require.NoError(t, history.NewFileStore(dir).Save(t.Context(), userID, turns))
	return dir
}

func TestHistoryShow(t *testing.T) {
	seedHistory(t, "user-1", []models.Turn{
		models.UserTurn("What is the tuition?"),
		models.AssistantTurn("It depends on the department."),
	})

	out, err := runCLI(t, "history", "show", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "User:")
	assert.Contains(t, out, "What is the tuition?")
	assert.Contains(t, out, "Assistant:")
	assert.Contains(t, out, "It depends on the department.")
}

func TestHistoryShowJSON(t *testing.T) {
	seedHistory(t, "user-1", []models.Turn{models.UserTurn("hi")})

	out, err := runCLI(t, "history", "show", "user-1", "--json")
	require.NoError(t, err)
	var turns []models.Turn
	require.NoError(t, json.Unmarshal([]byte(out), &turns))
	assert.Equal(t, []models.Turn{models.UserTurn("hi")}, turns)
}

func TestHistoryShowEmpty(t *testing.T) {
	seedHistory(t, "someone-else", nil)

	out, err := runCLI(t, "history", "show", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation history.")
}

func TestHistoryClear(t *testing.T) {
	dir := seedHistory(t, "user-1", []models.Turn{models.UserTurn("hi")})

	out, err := runCLI(t, "history", "clear", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared history for user-1")

	turns, err := history.NewFileStore(dir).Load(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestHistoryRejectsInvalidUserID(t *testing.T) {
	seedHistory(t, "user-1", nil)

	_, err := runCLI(t, "history", "show", "../etc/passwd")
	assert.ErrorIs(t, err, history.ErrInvalidUserID)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "uniassist "+Version+"\n", out)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := runCLI(t, "extract", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestSiteName(t *testing.T) {
	assert.Equal(t, "student", siteName(serveCmd))
	assert.Equal(t, "admin", siteName(adminServeCmd))
	assert.Equal(t, "cli", siteName(askCmd))
}
