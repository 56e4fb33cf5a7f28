package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/raphaelgruber/uniassist/internal/server"
	"github.com/raphaelgruber/uniassist/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	adminName string
	adminID   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Run the admin site or manage admin accounts",
}

var adminServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin site",
	Long: `Run the admin site: admin registration and login, the applicant list
(/student) and runtime statistics as JSON (/stats).

Listens on UNIASSIST_ADMIN_PORT (default 50001).`,
	Args: cobra.NoArgs,
	RunE: runAdminServe,
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create an admin account. The password is read from the terminal without echo,
or from a single line on stdin when stdin is not a terminal.

Examples:
  uniassist admin create --name "Registrar" --id reg-01
  echo "$PASSWORD" | uniassist admin create --name "Registrar" --id reg-01`,
	Args: cobra.NoArgs,
	RunE: runAdminCreate,
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "display name (required)")
	adminCreateCmd.Flags().StringVar(&adminID, "id", "", "admin id used to log in (required)")
	_ = adminCreateCmd.MarkFlagRequired("name")
	_ = adminCreateCmd.MarkFlagRequired("id")

	adminCmd.AddCommand(adminServeCmd)
	adminCmd.AddCommand(adminCreateCmd)
}

func runAdminServe(cmd *cobra.Command, args []string) error {
	rt, err := startRuntime(cmd.Context(), "admin", false)
	if err != nil {
		return err
	}
	defer rt.close()

	site, err := server.NewAdmin(server.AdminDeps{
		Site:         "UniAssist Admin",
		Secret:       cfg.SecretKey,
		Accounts:     rt.accounts,
		Applications: rt.apps,
		Metrics:      rt.metrics,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	return serveSite(cfg.AdminPort, site.Handler())
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	dbClient, err := connectDB(ctx, metrics.NewCollector())
	if err != nil {
		return err
	}
	defer dbClient.Close(context.Background())

	admin, err := service.NewAccountService(dbClient).RegisterAdmin(ctx, adminName, adminID, password)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("invalid admin: %w", verr)
	case err != nil:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", admin.Name, admin.AdminID)
	return nil
}

// readPassword prompts on a terminal, or reads one line from non-terminal stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
