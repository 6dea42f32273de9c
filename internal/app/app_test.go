package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/retail-oms/internal/health"
	"github.com/vladislavdragonenkov/retail-oms/internal/version"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.StorageDriver = StorageDriverMemory
	return cfg
}

func TestRun_MemoryGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_InvalidStorageDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = "invalid-driver"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestRun_GRPCAddressInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer busy.Close()

	cfg := testConfig()
	cfg.GRPCAddr = busy.Addr().String()

	err = Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "listen grpc") {
		t.Fatalf("expected listen error, got %v", err)
	}
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	srv := startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), logger, healthHandler)
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForServer(t, base+"/livez")

	for path, wantBody := range map[string]string{"/livez": "ok", "/readyz": "ready", "/healthz": "", "/metrics": ""} {
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("failed to get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, resp.StatusCode)
		}
		if wantBody != "" && string(body) != wantBody {
			t.Errorf("expected %q from %s, got %q", wantBody, path, string(body))
		}
		if len(body) == 0 {
			t.Errorf("%s should return non-empty response", path)
		}
	}
}

func TestStartMetricsServer_StopsOnCancel(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())

	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "http-shutdown"), healthcheck.NewHandler("test"))
	waitForServer(t, fmt.Sprintf("http://127.0.0.1:%d/livez", port))

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/livez", port)); err != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("metrics server is still serving after cancel")
}

func TestShutdownHTTP_Nil(t *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "shutdown"))
}

func TestInitKafkaProducer_Disabled(t *testing.T) {
	producer, err := initKafkaProducer(nil, log.WithField("test", "kafka"))
	if err != nil || producer != nil {
		t.Fatalf("expected kafka to be disabled, got %v, %v", producer, err)
	}
	closeKafka(nil, log.WithField("test", "kafka"))
}

func TestStartWorkers_StopWithoutKafka(t *testing.T) {
	cfg := testConfig()
	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "workers"))
	if err != nil {
		t.Fatalf("init dependencies failed: %v", err)
	}

	stop := startWorkers(context.Background(), cfg, deps, nil, prometheus.NewRegistry(), log.WithField("test", "workers"))

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop")
	}
}

func findFreePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s did not start", url)
}
