package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lewebsimple/autologin/config"
	"github.com/lewebsimple/autologin/internal/email"
	"github.com/lewebsimple/autologin/internal/infrastructure/postgres"
	"github.com/lewebsimple/autologin/internal/infrastructure/redis"
	"github.com/lewebsimple/autologin/internal/password"
	"github.com/lewebsimple/autologin/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var verbose bool

// NewRootCmd creates the root command for autologinctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autologinctl",
		Short: "Manage the autologin endpoint and issue login links",
		Long: `autologinctl reads the same environment as the server (DATABASE_URL,
REDIS_URL, BASE_URL, ...) and manages the deployment endpoint or issues
login links out of band.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(NewInstallCmd())
	cmd.AddCommand(NewUninstallCmd())
	cmd.AddCommand(NewEndpointCmd())
	cmd.AddCommand(NewIssueCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
}

// env holds what every subcommand needs after loading config.
type env struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	install *usecase.InstallUsecase
	logger  *slog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger := newLogger(os.Stderr)
	return &env{
		cfg:     cfg,
		pool:    pool,
		install: usecase.NewInstallUsecase(postgres.NewOptionRepository(pool), logger),
		logger:  logger,
	}, nil
}

func (e *env) Close() { e.pool.Close() }

// links builds a LinkUsecase against the shared record store. The memory
// backend lives inside the server process, so it cannot be used from here.
func (e *env) links(ctx context.Context) (*usecase.LinkUsecase, func(), error) {
	if e.cfg.StoreBackend != "redis" {
		return nil, nil, fmt.Errorf("issuing links requires STORE_BACKEND=redis, got %q", e.cfg.StoreBackend)
	}

	settings, err := e.install.Settings(ctx)
	if err != nil {
		return nil, nil, err
	}

	client, err := redis.NewClient(ctx, e.cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	links := usecase.NewLinkUsecase(
		redis.NewRecordStore(client, e.cfg.RedisKeyPrefix),
		postgres.NewUserRepository(e.pool),
		password.NewArgon2idHasher(password.DefaultParams),
		email.NewSender(e.cfg.Env, e.cfg.ResendAPIKey, e.cfg.ResendFrom, e.logger),
		usecase.LinkConfig{
			BaseURL:        e.cfg.BaseURL,
			Endpoint:       settings.Endpoint,
			ValidateDomain: e.cfg.ValidateDomain,
			CheckSignature: e.cfg.CheckSignature,
			DefaultTTL:     e.cfg.LinkTTL,
		},
		e.logger,
	)
	return links, func() { _ = client.Close() }, nil
}
