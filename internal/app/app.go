package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/retail-oms/internal/health"
	"github.com/vladislavdragonenkov/retail-oms/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/retail-oms/internal/service/grpc"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/httpapi"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/idempotency"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/identity"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
	"github.com/vladislavdragonenkov/retail-oms/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает хранилище, gRPC и HTTP API, сервер метрик и фоновые воркеры
// и блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithFields(version.Fields()).Info("starting retail-oms")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
	}
	defer closeKafka(kafkaProducer, logger)

	api, err := newOrderingAPI(cfg, deps, logger)
	if err != nil {
		return err
	}

	grpcServer, grpcHealth := newGRPCServer(api, logger.WithField("layer", "grpc"))
	httpServer := &http.Server{
		Handler:           httpapi.NewRouter(api, logger.WithField("layer", "http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	healthHandler.RegisterChecker("outbox", outboxBacklogChecker{repo: deps.outboxRepo, maxPending: cfg.OutboxMaxPending})
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return fmt.Errorf("listen grpc: %w", err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		shutdownHTTP(metricsSrv, logger)
		return fmt.Errorf("listen http: %w", err)
	}

	stopWorkers := startWorkers(ctx, cfg, deps, kafkaProducer, prometheus.DefaultRegisterer, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("HTTP API слушает %s", httpLis.Addr())
		errCh <- httpServer.Serve(httpLis)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		runErr = ctx.Err()
	case err := <-errCh:
		if !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	stopGRPC(grpcServer, logger)
	shutdownHTTP(httpServer, logger)
	shutdownHTTP(metricsSrv, logger)
	stopWorkers()

	return runErr
}

func newOrderingAPI(cfg Config, deps runtimeDependencies, logger *log.Entry) (*ordering.API, error) {
	service, err := ordering.NewService(
		deps.catalog,
		identity.NewContextResolver(),
		deps.repo,
		deps.lineItems,
		ordering.WithTimeline(deps.timelineRepo),
		ordering.WithOutbox(deps.outboxRepo),
		ordering.WithMetrics(metrics.NewOrderMetrics()),
		ordering.WithLogger(logger.WithField("layer", "ordering")),
	)
	if err != nil {
		return nil, fmt.Errorf("build ordering service: %w", err)
	}

	guard := idempotency.NewGuard(deps.idempotencyRepo, cfg.IdempotencyTTL, logger.WithField("layer", "idempotency"))
	return ordering.NewAPI(service, guard), nil
}

func newGRPCServer(api *ordering.API, logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcMetrics.UnaryServerInterceptor(),
		grpcsvc.LoggingInterceptor(logger),
		grpcsvc.ActorInterceptor(),
	))
	grpcsvc.RegisterOrderServiceServer(server, grpcsvc.NewOrderService(api, logger))
	grpcMetrics.InitializeMetrics(server)
	reflection.Register(server)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}

// stopGRPC ждёт завершения активных вызовов не дольше shutdownTimeout.
func stopGRPC(server *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus и health-пробы.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
