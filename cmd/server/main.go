package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/app"
	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/bulletin"
	"github.com/Spok95/gestion-scolaire/internal/cache"
	"github.com/Spok95/gestion-scolaire/internal/config"
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/jobs"
	"github.com/Spok95/gestion-scolaire/internal/logging"
	"github.com/Spok95/gestion-scolaire/internal/notify"
	"github.com/Spok95/gestion-scolaire/internal/observability"
	"github.com/Spok95/gestion-scolaire/internal/school"
)

// release is set at build time with -ldflags "-X main.release=...".
var release = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Base.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if err := run(cfg, lg.Base); err != nil {
		observability.CaptureErr(err)
		lg.Base.Error("server stopped", zap.Error(err))
		flush()
		lg.Closer()
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(ctx, database); err != nil {
		return err
	}
	if cfg.Seed {
		if err := db.Seed(ctx, database, db.SeedOptions{AdminPassword: cfg.SeedAdminPassword}, lg); err != nil {
			return err
		}
	}

	var rankings *cache.Rankings
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			lg.Warn("redis unavailable, ranking cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			rankings = cache.NewRankings(rdb)
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" && len(cfg.TelegramChatIDs) > 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatIDs, lg)
		if err != nil {
			lg.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	svc := school.New(school.Deps{
		DB:       database,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL),
		Rankings: rankings,
		Notifier: notifier,
		Log:      lg,
		School: bulletin.School{
			Name:    cfg.SchoolName,
			Address: cfg.SchoolAddress,
			Phone:   cfg.SchoolPhone,
		},
		Location:    cfg.Location,
		TeacherCode: cfg.TeacherCode,
		AdminCode:   cfg.AdminCode,
	})

	runner := jobs.New(ctx, lg)
	runner.Every(time.Minute, "gauges", jobs.RefreshGauges(database))

	srv := app.NewServer(svc, database, lg, app.Options{
		CORSOrigins:    cfg.CORSOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
	})
	hs := app.StartHTTP(ctx, cfg.HTTPAddr, srv.Router(), lg)

	err = hs.Wait()
	if err == nil && ctx.Err() != nil {
		lg.Info("shutting down")
		return nil
	}
	if err == nil {
		err = errors.New("http server exited")
	}
	return err
}
