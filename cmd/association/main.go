// cmd/association/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"njangi/internal/association"
	"njangi/internal/clients"
	"njangi/internal/config"
	"njangi/internal/directory"
	"njangi/internal/submission"
	"njangi/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdown, err := telemetry.SetupTracing(ctx, "association", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer shutdown(ctx)

	var dir association.Directory
	switch {
	case cfg.DirectoryServiceURL != "":
		dir = clients.NewDirectoryClient(cfg.DirectoryServiceURL, &http.Client{Timeout: 5 * time.Second})
	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		dir = directory.NewPostgres(db)
	default:
		logger.Warn("no user directory configured, using development members")
		dir = directory.NewStatic(directory.DevMembers())
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.SubmitRatePerMinute)), cfg.SubmitRatePerMinute)
	handler := association.NewHandler(dir, submission.NewLogSubmitter(logger), limiter, logger,
		association.WithSessionLimits(time.Duration(cfg.SessionIdleMinutes)*time.Minute, cfg.MaxSessions))

	logger.Info("starting association service", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, handler.Routes()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
