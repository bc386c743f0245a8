package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/backend"
	"attendancetracker/internal/config"
	"attendancetracker/internal/logger"
	"attendancetracker/internal/queue"
	"attendancetracker/internal/report"
	"attendancetracker/internal/store"
)

const defaultReportDir = "reports"

// Worker consumes check-in events and keeps the daily report of each day current.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg).With("module", "worker")

	if cfg.PrimaryBackend == "memory" {
		log.Error("the report worker needs a shared primary backend, PRIMARY_BACKEND=memory only lives inside the api process")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	cal, err := attendance.NewCalendar(cfg.Timezone)
	if err != nil {
		log.Error("invalid report timezone", "error", err)
		os.Exit(1)
	}

	primary, closePrimary := backend.Open(ctx, cfg, log)
	defer closePrimary()

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		log.Error("invalid redis address", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Warn("redis not reachable yet, consumer will keep retrying", "addr", cfg.RedisAddr)
	}
	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)

	uploader, err := report.NewUploader(ctx, cfg)
	if err != nil {
		log.Warn("report archive disabled", "error", err)
	} else if uploader != nil {
		log.Info("archiving reports", "s3_bucket", cfg.S3.Bucket, "cloudinary", cfg.Cloudinary.CloudName)
	}

	dir := cfg.ReportDir
	if dir == "" {
		dir = defaultReportDir
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Error("queue consume init failed", "error", err)
		os.Exit(1)
	}

	log.Info("worker started, waiting for messages", "report_dir", dir, "primary", cfg.PrimaryBackend)
	report.NewPublisher(primary, cal, dir, uploader, logger.New("report")).Run(ctx, messages)
	log.Info("worker stopped")
}
