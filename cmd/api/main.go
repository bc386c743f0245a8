package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/backend"
	"attendancetracker/internal/config"
	"attendancetracker/internal/handler"
	"attendancetracker/internal/httpmiddleware"
	"attendancetracker/internal/logger"
	"attendancetracker/internal/queue"
	"attendancetracker/internal/report"
	"attendancetracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg).With("module", "api")

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cal, err := attendance.NewCalendar(cfg.Timezone)
	if err != nil {
		return err
	}

	primary, closePrimary := backend.Open(ctx, cfg, log)
	defer closePrimary()

	// The fallback lives for the whole process and is shared by every request.
	fallback := attendance.NewFallback(cal)
	svc := attendance.NewService(primary, fallback, cal, attendance.WithLogger(logger.New("attendance")))

	var redisClient *store.Redis
	var events queue.Queue
	switch cfg.QueueBackend {
	case "memory":
		// Only worth queueing when something in this process consumes the events.
		if cfg.ReportDir != "" {
			mem := queue.NewInMemory(64)
			events = mem
			startInProcessReports(ctx, cfg, svc, cal, mem, log)
		}
	default:
		redisClient, err = store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		events = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	h := handler.New(svc, events, handler.FormOptions{
		Companies:   cfg.Companies,
		Supervisors: cfg.Supervisors,
	}, logger.New("handler"))

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(logger.New("http"), "/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", httpmiddleware.RequestIDHeader},
		ExposeHeaders:   []string{"Content-Disposition", httpmiddleware.RequestIDHeader},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		primaryErr := svc.PrimaryHealthy(c.Request.Context())
		resp := gin.H{"status": "ok", "primary": primaryErr == nil, "backend": cfg.PrimaryBackend}
		if redisClient != nil {
			resp["redis"] = redisClient.Healthy(c.Request.Context())
			if n, err := redisClient.Pending(c.Request.Context(), queue.DefaultKey); err == nil {
				resp["pending_checkins"] = n
			}
		}
		status := http.StatusOK
		if primaryErr != nil {
			// submissions still succeed through the fallback
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
		}
		c.JSON(status, resp)
	})

	limited := r.Group("/", httpmiddleware.NewLimiter(cfg.RateLimitPerMin, httpmiddleware.ClientWrites).Middleware())
	h.Register(limited)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr, "primary", cfg.PrimaryBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", "error", err)
	}

	log.Info("server exited")
	return nil
}

func startInProcessReports(ctx context.Context, cfg config.App, svc *attendance.Service, cal attendance.Calendar, q queue.Queue, log *slog.Logger) {
	uploader, err := report.NewUploader(ctx, cfg)
	if err != nil {
		log.Warn("report archive disabled", "error", err)
	}
	messages, err := q.Consume(ctx)
	if err != nil {
		log.Warn("report consumer not started", "error", err)
		return
	}
	pub := report.NewPublisher(svc, cal, cfg.ReportDir, uploader, logger.New("report"))
	go pub.Run(ctx, messages)
}

// securityHeaders sets the response headers every route shares; HSTS only in release mode.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
