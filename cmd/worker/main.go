package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/coursedesk/coursedesk/internal/app"
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

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{jobs.QueueDefault: 1},
		},
	)

	processor := &jobs.Processor{Logger: logger}
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskTypeSubmissionReceived, processor.HandleSubmissionReceived)
	mux.HandleFunc(jobs.TaskTypeGradePosted, processor.HandleGradePosted)

	if err := server.Start(mux); err != nil {
		logger.Error("start worker", slog.Any("error", err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	server.Shutdown()
}
