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

	"plantar/internal/config"
	"plantar/internal/identity"
	"plantar/internal/mqtt"
	"plantar/internal/observability/logging"
	"plantar/internal/observability/metrics"
	"plantar/internal/predict"
	"plantar/internal/service"
	"plantar/internal/store"
	transport "plantar/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "plantar",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	metrics.MustRegister("plantar")

	logger.Info("starting service")

	db, err := store.Open(cfg.DatabaseURL, cfg.DBLogSQL)
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	st := store.New(db)
	if cfg.AutoMigrate {
		if err := st.AutoMigrate(context.Background()); err != nil {
			logger.Error("auto migrate", "error", err)
			os.Exit(1)
		}
	}

	sessions := service.NewSessionManager(st.Sessions(), time.Now)
	samples := service.NewSampleService(st.Samples(), sessions, time.Now)
	reports := service.NewReportService(st.Reports(), sessions, time.Now)

	var model service.Predictor
	if cfg.PredictModelURL != "" {
		model = predict.NewClient(cfg.PredictModelURL, cfg.PredictTimeout)
		logger.Info("prediction model configured", "url", cfg.PredictModelURL, "timeout", cfg.PredictTimeout.String())
	} else {
		logger.Warn("PREDICT_MODEL_URL not set, predictions will use the fallback outcome")
	}
	predictions := service.NewPredictionPipeline(model, st.Reports(), sessions, cfg.PredictTimeout, time.Now)

	users := identity.NewResolver(cfg.UserJWTSecret, cfg.UserJWTIssuer)
	devices := identity.NewDeviceAuthenticator(cfg.DeviceIngestSecrets)

	h := transport.NewHandler(sessions, samples, predictions, reports, users, devices)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: transport.NewRouter(h, transport.Options{
			CORSOrigins:     cfg.CORSOrigins,
			IngestRateLimit: cfg.IngestRateLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var bridge *mqtt.Bridge
	if cfg.MQTTBroker != "" {
		bridge = mqtt.NewBridge(mqtt.Config{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			QoS:      byte(cfg.MQTTQoS),
		}, devices, samples)
		if err := bridge.Start(); err != nil {
			logger.Error("mqtt bridge", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("plantar service listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if bridge != nil {
		bridge.Stop(2 * time.Second)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("stopped")
}
