// Payment intent service with MPC-settled encrypted amounts.
// Usage: ENCRYPTION_MASTER_KEY=<64 hex chars> go run ./cmd/paymentd
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/confidential-pay/docs"
	"github.com/AlexZinkM/confidential-pay/internal/api"
	"github.com/AlexZinkM/confidential-pay/internal/client"
	"github.com/AlexZinkM/confidential-pay/internal/config"
	"github.com/AlexZinkM/confidential-pay/internal/crypto"
	"github.com/AlexZinkM/confidential-pay/internal/handler"
	"github.com/AlexZinkM/confidential-pay/internal/store"
	"github.com/AlexZinkM/confidential-pay/payment"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := config.Init(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	cfg := config.Get()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("invalid LOG_LEVEL")
	}
	log.SetLevel(level)

	master, err := config.LoadMasterKey()
	if errors.Is(err, crypto.ErrConfiguration) && os.Getenv("ENCRYPTION_MASTER_KEY") == "" {
		master, err = config.PromptForMasterKey()
	}
	if err != nil {
		log.WithError(err).Fatal("failed to load master key")
	}
	codec, err := crypto.NewCodec(master)
	clear(master)
	if err != nil {
		log.WithError(err).Fatal("failed to create codec")
	}

	intentStore, err := store.NewIntentStore(store.StoreConfig{
		Path:   config.GetDataDir(),
		Logger: log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer intentStore.Close()

	var mpc payment.MPCClient
	switch cfg.MPCMode {
	case config.MPCModeCluster:
		mpc = client.NewMPCClient(cfg.MPCServiceURL, cfg.MPCTimeout, log)
	default:
		mpc = client.NewSimulator(codec, log)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := payment.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}

	opts := payment.Options{
		Timeout:     cfg.MPCTimeout,
		MaxAttempts: cfg.MPCMaxAttempts,
		AutoConfirm: cfg.AutoConfirm,
		Logger:      log,
		Metrics:     metrics,
	}
	if cfg.SolanaRPCURL != "" {
		opts.Settlement = client.NewSolanaClient(cfg.SolanaRPCURL, log)
	}
	svc := payment.NewService(codec, intentStore, mpc, opts)

	docs.SwaggerInfo.Host = "localhost:" + config.GetPort()
	router := api.SetupRouter(handler.NewIntentHandler(svc, log), registry)

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"mpc_mode": cfg.MPCMode,
			"data_dir": cfg.DataDir,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
