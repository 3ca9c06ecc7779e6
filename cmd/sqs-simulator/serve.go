package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/config"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/metrics"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/mq"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage/inmemory"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage/mongodb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulator and its HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Starting SQS simulator",
		"queue_type", cfg.Simulator.QueueType,
		"max_receive_count", cfg.Simulator.MaxReceiveCount,
		"failure_probability", cfg.Simulator.FailureProbability,
		"publishers", cfg.Events.Publishers,
		"audit", cfg.Audit.Type,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := simulator.NewEngine(cfg.EngineConfig(), logger)
	if err != nil {
		return err
	}

	bus := mq.NewInMemoryBus(mq.InMemoryBusConfig{
		BufferSize: cfg.Events.BusBufferSize,
		MaxWorkers: cfg.Events.BusWorkers,
	}, logger)
	// The bus outlives the signal context so shutdown can drain it.
	if err := bus.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	repo, err := buildAuditRepository(cfg)
	if err != nil {
		_ = bus.Close()
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			logger.Error("Failed to close audit repository", "error", err)
		}
	}()

	publisher, err := buildPublisher(cfg, bus, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publishers", "error", err)
		}
	}()

	recorder := storage.NewRecorder(repo, logger)
	if err := recorder.Register(ctx, bus); err != nil {
		return err
	}

	m, err := metrics.New(engine, logger)
	if err != nil {
		return err
	}
	if err := m.Register(ctx, bus); err != nil {
		return err
	}

	bridge := mq.NewBridge(engine, publisher, cfg.Simulator.SubscriberBuffer, logger)
	if err := bridge.Start(ctx); err != nil {
		return err
	}
	defer bridge.Stop()

	runner := simulator.NewRunner(engine, logger)
	if cfg.Simulator.AutoStart {
		if err := runner.Start(ctx); err != nil {
			return err
		}
		defer runner.Stop()
	}

	router := api.NewRouter(api.Dependencies{
		Simulator:        engine,
		Events:           engine,
		Audit:            repo,
		Metrics:          m.Handler(),
		SubscriberBuffer: cfg.Simulator.SubscriberBuffer,
		Logger:           logger,
	})

	srv := newHTTPServer(cfg, router.Engine())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down SQS simulator...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return err
	}

	logger.Info("SQS simulator stopped gracefully",
		"events_forwarded", bridge.Forwarded(),
		"audit_records", recorder.Stored(),
	)
	return nil
}

// newHTTPServer builds the API listener. Shutdown cancels every request
// context, which ends open event streams instead of waiting them out.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}

// buildPublisher fans events out to the in-process bus and every enabled
// external broker
func buildPublisher(cfg *config.Config, bus *mq.InMemoryBus, logger *slog.Logger) (mq.FanoutPublisher, error) {
	publishers := mq.FanoutPublisher{bus}

	if cfg.HasPublisher(config.PublisherRedis) {
		redisPub, err := mq.NewRedisPublisher(mq.RedisPublisherConfig{
			RedisURL:      cfg.Events.RedisURL,
			ChannelPrefix: cfg.Events.SubjectPrefix,
			HistoryKey:    cfg.Events.RedisHistoryKey,
			HistorySize:   cfg.Events.RedisHistorySize,
		}, logger)
		if err != nil {
			_ = publishers.Close()
			return nil, err
		}
		publishers = append(publishers, redisPub)
	}

	if cfg.HasPublisher(config.PublisherNATS) {
		natsPub, err := mq.NewNATSPublisher(mq.NATSPublisherConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		}, logger)
		if err != nil {
			_ = publishers.Close()
			return nil, err
		}
		publishers = append(publishers, natsPub)
	}

	return publishers, nil
}

func buildAuditRepository(cfg *config.Config) (storage.AuditRepository, error) {
	switch cfg.Audit.Type {
	case config.AuditMongoDB:
		return mongodb.NewAuditRepository(cfg.Audit.MongoURI, cfg.Audit.Database, cfg.Audit.Collection)
	default:
		return inmemory.NewAuditRepository(), nil
	}
}
