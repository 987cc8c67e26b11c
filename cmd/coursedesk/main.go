package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/coursedesk/coursedesk/internal/app"
	"github.com/coursedesk/coursedesk/internal/assignments"
	"github.com/coursedesk/coursedesk/internal/auth"
	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/db"
	"github.com/coursedesk/coursedesk/internal/shared"
	"github.com/coursedesk/coursedesk/internal/submissions"
	"github.com/coursedesk/coursedesk/internal/token"
	"github.com/coursedesk/coursedesk/internal/users"
	"github.com/coursedesk/coursedesk/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	catalog := authz.DefaultCatalog()
	tokenConfig := token.Config{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Lifetime: cfg.JWTLifetime,
	}
	issuer := token.NewIssuer(tokenConfig, catalog)
	verifier := token.NewVerifier(tokenConfig)
	guard := authz.Middleware{Verifier: verifier, Logger: logger}

	auditLogger := shared.NewAuditLogger(pool)
	notifier := jobs.NewNotifier(asynqClient)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	throttle := auth.NewLoginThrottle(redisClient, cfg.LoginMaxFailures, cfg.LoginFailureWindow)
	authHandler := auth.NewHandler(logger, authService, issuer, throttle)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, guard)

	assignmentsRepo := assignments.NewRepository(pool)
	assignmentsService := assignments.NewService(assignmentsRepo)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService, guard)

	submissionsRepo := submissions.NewRepository(pool)
	submissionsService := submissions.NewService(submissionsRepo, notifier, auditLogger)
	submissionsHandler := submissions.NewHandler(logger, submissionsService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Guard:              guard,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		AssignmentsHandler: assignmentsHandler,
		SubmissionsHandler: submissionsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
