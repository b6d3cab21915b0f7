package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/config"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config   *gconfig.Container[*config.BaseConfig]
	bunDB    *bun.DB
	auth     accounts.Authenticator
	auther   accounts.HTTPAuthenticator
	repo     accounts.RepositoryManager
	notifier accounts.Notifier
	tokens   accounts.TokenService
	srv      router.Server[*fiber.App]
	logger   *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	if err := cfg.Raw().Validate(); err != nil {
		panic(err)
	}

	if cfg.Raw().GetEnv() != "production" {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
		fmt.Println("============")
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithNotifier(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	go PurgeExpiredTokens(ctx, app)

	app.srv.Serve(app.Config().GetServer().GetAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*accounts.User)(nil))
	persistence.RegisterModel((*accounts.VerificationToken)(nil))
	persistence.RegisterModel((*accounts.Snippet)(nil))

	pcfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(pcfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = accounts.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithNotifier(ctx context.Context, app *App) error {
	mcfg := app.Config().GetMailer()

	if !mcfg.GetEnabled() {
		app.notifier = accounts.LogNotifier{
			FrontendURL: mcfg.GetFrontendURL(),
			Logger:      app.GetLogger("mailer"),
		}
		return nil
	}

	notifier, err := accounts.NewSMTPNotifier(mcfg)
	if err != nil {
		return err
	}

	app.notifier = notifier.WithLogger(app.GetLogger("mailer"))
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	allowedOrigins := app.Config().GetServer().GetAllowedOrigins()

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		fapp := fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       app.Config().GetName(),
		})

		fapp.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, DELETE, OPTIONS",
		}))

		return router.DefaultFiberOptions(fapp)
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

type userTrackerAdapter struct {
	users accounts.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSucccessfulLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackSucccessfulLogin(ctx, user)
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	userProvider := accounts.NewUserProvider(userTrackerAdapter{users: app.repo.Users()})
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := accounts.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(app.GetLogger("auth"))

	app.auth = authenticator
	app.tokens = authenticator.TokenService()

	httpAuth, err := accounts.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))

	app.auther = httpAuth

	accounts.RegisterAuthRoutes(app.srv.Router().Group("/"),
		accounts.WithRepositoryManager(app.repo),
		accounts.WithHTTPAuthenticator(httpAuth, cfg),
		accounts.WithTokenService(app.tokens),
		accounts.WithNotifier(app.notifier),
		accounts.WithControllerLogger(app.GetLogger("auth:ctrl")),
	)

	accounts.RegisterSnippetRoutes(app.srv.Router().Group("/"),
		accounts.WithSnippetRepositoryManager(app.repo),
		accounts.WithSnippetAuthenticator(httpAuth, cfg),
		accounts.WithSnippetLogger(app.GetLogger("snippets")),
	)

	return nil
}

// PurgeExpiredTokens sweeps rows the created_at predicate already keeps from
// redeeming. Purely housekeeping, correctness does not depend on it.
func PurgeExpiredTokens(ctx context.Context, app *App) {
	logger := app.GetLogger("purge")
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := app.repo.VerificationTokens().PurgeExpired(ctx)
			if err != nil {
				logger.Error("verification token purge failed", "error", err)
			} else if purged > 0 {
				logger.Info("purged expired verification tokens", "count", purged)
			}
		}
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
