package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/raphaelgruber/uniassist/internal/service"
	"github.com/spf13/cobra"
)

var askUser string

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the admission assistant a single question",
	Long: `Ask the admission assistant one question without running the site.

The question goes through the same pipeline as the chat page: reference
document, conversation history, the configured model and web search.
With --user the exchange is read from and saved to that user's history;
without it the question is asked as a guest and nothing is stored.

Examples:
  uniassist ask "What is the admission deadline for CSE?"
  uniassist ask "And the tuition?" --user 3f2c9a1e-5b7d-4c1a-9e2f-0a1b2c3d4e5f`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user id whose history to continue (default: guest)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	collector := metrics.NewCollector()

	var dbClient *db.Client
	if askUser != "" && historyNeedsDB() {
		var err error
		dbClient, err = connectDB(ctx, collector)
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

	chat, err := newChatService(ctx, store, collector, nil)
	if err != nil {
		return err
	}

	result, err := chat.Send(ctx, askUser, args[0])
	if err != nil && !errors.Is(err, service.ErrHistorySave) {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Reply)
	if result.Warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), defaultTheme.hintStyle().Render("Warning: "+result.Warning))
	}
	return nil
}
