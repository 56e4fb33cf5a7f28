package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/raphaelgruber/uniassist/internal/server"
	"github.com/raphaelgruber/uniassist/internal/service"
	"github.com/raphaelgruber/uniassist/internal/telemetry"
	"github.com/spf13/cobra"
)

// writeTimeoutMargin is added to the agent timeout so a reply produced just
// before the deadline can still be written.
const writeTimeoutMargin = 30 * time.Second

var serveWipe bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the student site",
	Long: `Run the student site: registration, login, the admission form,
payment instructions and the admission assistant chat (/chat and /chat/ws).

Listens on UNIASSIST_STUDENT_PORT (default 5000).

Examples:
  uniassist serve
  UNIASSIST_HISTORY_BACKEND=bolt uniassist serve -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWipe, "wipe", false, "wipe all data from database on startup (testing only)")
}

// siteRuntime holds what both sites share: config-checked store, metrics and tracing.
type siteRuntime struct {
	db       *db.Client
	metrics  *metrics.Collector
	tracing  *telemetry.Provider
	accounts *service.AccountService
	apps     *service.ApplicationService
}

func startRuntime(ctx context.Context, site string, wipe bool) (*siteRuntime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:      cfg.TracingEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Site:         site,
		Version:      Version,
	}, logger)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	dbClient, err := connectDB(connectCtx, collector)
	if err != nil {
		_ = tracing.Shutdown(context.Background())
		return nil, err
	}

	if wipe {
		logger.Warn("wiping database")
		if err := dbClient.WipeData(connectCtx); err != nil {
			_ = dbClient.Close(context.Background())
			_ = tracing.Shutdown(context.Background())
			return nil, fmt.Errorf("wipe database: %w", err)
		}
	}

	return &siteRuntime{
		db:       dbClient,
		metrics:  collector,
		tracing:  tracing,
		accounts: service.NewAccountService(dbClient),
		apps:     service.NewApplicationService(dbClient),
	}, nil
}

func (rt *siteRuntime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.tracing.Shutdown(ctx); err != nil {
		logger.Warn("failed to flush traces", "error", err)
	}
	logger.Info("closing database connection")
	if err := rt.db.Close(ctx); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
}

// serveSite runs handler on port until SIGINT or SIGTERM.
func serveSite(port string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewHTTPServer(":"+port, handler, cfg.AgentTimeout+writeTimeoutMargin)
	logger.Info("site available", "url", fmt.Sprintf("http://localhost:%s/", port))
	return server.Serve(ctx, srv, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := startRuntime(ctx, "student", serveWipe)
	if err != nil {
		return err
	}
	defer rt.close()

	store, err := openHistory(rt.db)
	if err != nil {
		return err
	}
	defer store.Close()

	chat, err := newChatService(ctx, store, rt.metrics, rt.tracing.Tracer("github.com/raphaelgruber/uniassist/internal/service"))
	if err != nil {
		return err
	}

	site, err := server.NewStudent(server.StudentDeps{
		Site:         "UniAssist",
		Secret:       cfg.SecretKey,
		Accounts:     rt.accounts,
		Applications: rt.apps,
		Chat:         chat,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	logger.Info("uniassist starting",
		"version", Version,
		"surrealdb_url", cfg.SurrealDBURL,
		"history_backend", cfg.HistoryBackend,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"search_enabled", cfg.SearchEnabled,
	)
	return serveSite(cfg.StudentPort, site.Handler())
}
