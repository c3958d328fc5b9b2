package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/api"
	"github.com/yourusername/mediagrab/api/handlers"
	"github.com/yourusername/mediagrab/internal/app"
	"github.com/yourusername/mediagrab/internal/domain"
	"github.com/yourusername/mediagrab/internal/infrastructure"
	"github.com/yourusername/mediagrab/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file (default: search ./configs, ~/.mediagrab, /etc/mediagrab)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(config, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(config *domain.Config, log *zap.Logger) error {
	log.Info("Starting mediagrab server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("output_dir", config.Download.OutputDir),
		zap.Bool("history", config.History.Enabled))

	janitor := app.NewJanitor(&config.Download, log)
	if err := janitor.EnsureDir(); err != nil {
		return err
	}

	services := api.Services{Janitor: janitor}

	// Stats stays an untyped nil when history is off so the stats route reports it as disabled
	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer repo.Close()

		recorder := app.NewHistoryRecorder(repo, log)
		services.Recorder = recorder
		services.Stats = recorder
	} else {
		services.Recorder = app.NopRecorder{}
	}

	runner := infrastructure.NewProcessRunner(log)
	services.DownloadMgr = app.NewDownloadManager(&config.YTDLP, config.Download.OutputDir, runner, log)
	services.Publisher = app.NewPublisher(services.DownloadMgr, services.Recorder, log)
	services.Trimmer = app.NewTrimmer(&config.Trimmer, config.Download.OutputDir, runner, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start janitor: %w", err)
	}

	router := api.SetupRouter(services, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := janitor.Stop(); err != nil {
		log.Error("Error stopping janitor", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
