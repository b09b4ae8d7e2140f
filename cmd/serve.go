package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"ecg-viewer/auth"
	"ecg-viewer/config"
	"ecg-viewer/database"
	"ecg-viewer/handlers"
	"ecg-viewer/labels"
	"ecg-viewer/metrics"
	"ecg-viewer/waveform"
)

const shutdownTimeout = 30 * time.Second

func serveCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the viewer HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, s.cfg)
		},
	}

	cmd.Flags().String("port", "", "Listen port")
	cmd.Flags().String("dataset", "", "Directory recordings are resolved against")
	_ = s.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = s.v.BindPFlag("server.datasetdir", cmd.Flags().Lookup("dataset"))

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting application",
		"port", cfg.Server.Port,
		"gin_mode", cfg.Server.Mode,
		"db_driver", cfg.Database.Driver,
		"dataset", cfg.Server.DatasetDir)

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	table, err := loadLabels(cfg.Labels.Path)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc, err := waveform.NewService(newNormalizer(cfg.Waveform), waveform.ServiceConfig{
		MaxConcurrent: cfg.Waveform.MaxConcurrent,
		Timeout:       cfg.Waveform.Timeout,
		CacheTTL:      cfg.Waveform.CacheTTL,
	}, m, slog.Default())
	if err != nil {
		return err
	}
	defer svc.Close()

	h := handlers.New(
		database.NewStore(db),
		svc,
		table,
		auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		handlers.Options{
			DatasetDir: cfg.Server.DatasetDir,
			Denoise:    cfg.Waveform.Denoise,
			BandPass:   bandPass(cfg.Waveform),
			HoldTTL:    cfg.Auth.HoldTTL,
		},
		slog.Default(),
	)
	router := handlers.NewRouter(h, handlers.RouterConfig{
		AllowOrigins:  cfg.Server.AllowOrigins,
		TemplatesGlob: cfg.Server.TemplatesGlob,
		StaticDir:     cfg.Server.StaticDir,
	}, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server gracefully stopped")
	return nil
}

func loadLabels(path string) (*labels.Table, error) {
	if path == "" {
		return labels.Default(), nil
	}
	table, err := labels.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	slog.Info("Label table loaded", "path", path, "entries", table.Len())
	return table, nil
}
