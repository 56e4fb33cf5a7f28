package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/history"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear a user's conversation history",
	Long: `Inspect or clear the conversation history stored for a user.

The configured backend (UNIASSIST_HISTORY_BACKEND) is used.

Examples:
  uniassist history show 3f2c9a1e-5b7d-4c1a-9e2f-0a1b2c3d4e5f
  uniassist history show 3f2c9a1e-5b7d-4c1a-9e2f-0a1b2c3d4e5f --json
  uniassist history clear 3f2c9a1e-5b7d-4c1a-9e2f-0a1b2c3d4e5f`,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print a user's conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear <user-id>",
	Short: "Delete a user's conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryClear,
}

func init() {
	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false, "print the stored JSON array")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

// withHistory opens the configured store (and the database when the backend needs it) for fn.
func withHistory(ctx context.Context, fn func(history.Store) error) error {
	var dbClient *db.Client
	if historyNeedsDB() {
		var err error
		dbClient, err = connectDB(ctx, nil)
		if err != nil {
			return err
		}
		defer dbClient.Close(context.Background())
	}

	store, err := openHistory(dbClient)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	userID := args[0]
	return withHistory(cmd.Context(), func(store history.Store) error {
		turns, err := store.Load(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if historyJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "    ")
			return enc.Encode(turns)
		}
		printTurns(cmd.OutOrStdout(), turns)
		return nil
	})
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	userID := args[0]
	return withHistory(cmd.Context(), func(store history.Store) error {
		if err := store.Delete(cmd.Context(), userID); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared history for %s\n", userID)
		return nil
	})
}

func printTurns(w io.Writer, turns []models.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, defaultTheme.hintStyle().Render("No conversation history."))
		return
	}
	for _, t := range turns {
		fmt.Fprintf(w, "%s %s\n\n", defaultTheme.roleStyle(t.Role).Render(t.Role.Label()+":"), t.Message)
	}
}
