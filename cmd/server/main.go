// Command server serves the /usuarios HTTP API and, when GRPC_ADDR is set, the gRPC health service.
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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	otellog "go.opentelemetry.io/otel/log"
	"google.golang.org/grpc"

	"user-registry/internal/config"
	"user-registry/internal/db"
	"user-registry/internal/db/migrate"
	"user-registry/internal/logging"
	"user-registry/internal/server"
	"user-registry/internal/telemetry"
	telemetryotel "user-registry/internal/telemetry/otel"
	"user-registry/internal/telemetry/producer"
	"user-registry/internal/user/repository"
	"user-registry/internal/user/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	var logProvider otellog.LoggerProvider
	if cfg.OTelEndpoint != "" {
		logProvider = providers.LoggerProvider
	}
	logger := logging.New(os.Stdout, level, logProvider)
	slog.SetDefault(logger)

	repo, pool, err := openStore(ctx, cfg, providers, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	emitters := telemetry.MultiEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.UserEventsTopic)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		logger.Info("server: user events enabled", "topic", cfg.UserEventsTopic)
	}

	users := service.NewUserService(repo, emitters)

	handler, err := server.NewHTTPHandler(server.HTTPDeps{
		Users:          users,
		HealthPinger:   users,
		Log:            logger,
		CORSOrigins:    cfg.CORSOriginsList(),
		TracerProvider: providers.TracerProvider,
		MeterProvider:  providers.MeterProvider,
	})
	if err != nil {
		return err
	}
	httpServer := server.NewHTTPServer(cfg.ListenAddr(), handler, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server: HTTP listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = server.NewGRPCServer(server.GRPCDeps{
			HealthPinger:   users,
			TracerProvider: providers.TracerProvider,
			MeterProvider:  providers.MeterProvider,
		})
		go func() {
			logger.Info("server: gRPC health listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("server: shutting down")
	case runErr = <-errCh:
		logger.Error("server: stopped unexpectedly", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server: HTTP shutdown", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	// Let in-flight async emits finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Warn("server: kafka close", "error", err)
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server: otel shutdown", "error", err)
	}
	logger.Info("server: stopped")
	return runErr
}

// openStore returns the Postgres repository (and its pool) or the memory repository, per STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, providers *telemetryotel.Providers, logger *slog.Logger) (repository.Repository, *pgxpool.Pool, error) {
	if cfg.ResolvedStoreDriver() == config.StoreMemory {
		logger.Warn("server: using in-memory user store; data is lost on restart")
		return repository.NewMemoryRepository(), nil, nil
	}
	if cfg.MigrateOnStart {
		if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
			return nil, nil, err
		}
		logger.Info("server: migrations applied")
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL,
		db.WithMaxConns(cfg.DBMaxConns),
		db.WithTracer(db.NewQueryTracer(providers.TracerProvider)),
	)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgresRepository(pool), pool, nil
}
