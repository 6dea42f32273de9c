package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	grpcsvc "github.com/vladislavdragonenkov/retail-oms/internal/service/grpc"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/identity"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

const scenarioMethod = "scenario"

type loadMode string

const (
	modePlace     loadMode = "place"
	modePlaceRead loadMode = "place-read"
	modePlaceShip loadMode = "place-ship"
)

type config struct {
	addr        string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	shipRate    int
	actorID     int64
	productIDs  []int64
	quantity    int
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
}

type methodStats struct {
	calls     int64
	failed    int64
	codes     map[string]int64
	latencies []float64
}

func (s *methodStats) report() methodReport {
	codesCopy := make(map[string]int64, len(s.codes))
	for code, count := range s.codes {
		codesCopy[code] = count
	}
	return methodReport{
		Calls:     s.calls,
		Success:   s.calls - s.failed,
		Failed:    s.failed,
		ErrorRate: ratio(s.failed, s.calls),
		Codes:     codesCopy,
		LatencyMs: buildLatencySummary(s.latencies),
	}
}

// collector копит задержки и коды ответов по методам; безопасен для горутин.
type collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

func newCollector() *collector {
	return &collector{methods: make(map[string]*methodStats)}
}

func (c *collector) record(method string, latency time.Duration, code codes.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.methods[method]
	if !ok {
		stats = &methodStats{codes: make(map[string]int64)}
		c.methods[method] = stats
	}

	stats.calls++
	if code != codes.OK {
		stats.failed++
	}
	stats.codes[code.String()]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport, len(c.methods)),
	}

	for name, stats := range c.methods {
		result.Methods[name] = stats.report()
	}

	if scenario, ok := result.Methods[scenarioMethod]; ok {
		result.TotalScenarios = scenario.Calls
		result.SuccessScenarios = scenario.Success
		result.FailedScenarios = scenario.Failed
		result.ErrorRate = scenario.ErrorRate
		result.ScenarioLatencyMs = scenario.LatencyMs
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}

	return result
}

func parseConfig() (config, error) {
	var (
		cfg         config
		modeValue   string
		productsRaw string
	)

	flag.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	flag.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	flag.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m)")
	flag.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	flag.IntVar(&cfg.connections, "connections", 20, "number of gRPC client connections")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-RPC timeout")
	flag.StringVar(&modeValue, "mode", string(modePlace), "load mode: place | place-read | place-ship")
	flag.IntVar(&cfg.shipRate, "ship-rate", 100, "percent of scenarios that ship their first item in place-ship mode (0..100)")
	flag.Int64Var(&cfg.actorID, "actor-id", 1, "user id sent in x-actor-id metadata")
	flag.StringVar(&productsRaw, "products", "1,2,3", "comma-separated catalog product ids to order")
	flag.IntVar(&cfg.quantity, "quantity", 1, "quantity per order item")
	flag.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	flag.Parse()

	flag.CommandLine.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	cfg.productIDs, err = parseProductIDs(productsRaw)
	if err != nil {
		return cfg, err
	}

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.actorID <= 0:
		return cfg, errors.New("actor-id must be > 0")
	case cfg.quantity <= 0 || cfg.quantity > math.MaxInt32:
		return cfg, errors.New("quantity must be a positive int32")
	case cfg.shipRate < 0 || cfg.shipRate > 100:
		return cfg, errors.New("ship-rate must be between 0 and 100")
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modePlace, modePlaceRead, modePlaceShip:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func parseProductIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		id, err := strconv.ParseInt(chunk, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid product id %q", chunk)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one product id is required")
	}
	return ids, nil
}

// orderClient — вызовы OrderService, которые использует нагрузочный сценарий.
type orderClient interface {
	PlaceOrder(ctx context.Context, req *ordering.PlaceOrderRequest, opts ...grpc.CallOption) (*ordering.Response, error)
	GetOrder(ctx context.Context, req *grpcsvc.GetOrderRequest, opts ...grpc.CallOption) (*ordering.Response, error)
	UpdateLineItemStatus(ctx context.Context, req *grpcsvc.UpdateLineItemStatusRequest, opts ...grpc.CallOption) (*ordering.Response, error)
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	clients := make([]orderClient, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to create grpc client connection: %v\n", dialErr)
			os.Exit(1)
		}
		conns = append(conns, conn)
		clients = append(clients, grpcsvc.NewClient(conn))
	}
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	startedAt := time.Now()
	result := runLoad(clients, cfg, fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid()))

	printReport(result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// runLoad раздаёт сценарии воркерам и возвращает сводный отчёт.
func runLoad(clients []orderClient, cfg config, runID string) report {
	startedAt := time.Now()
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var failures int64
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(cli orderClient) {
			defer wg.Done()
			for id := range jobs {
				if err := runScenario(cli, cfg, id, runID, col); err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}(clients[workerID%len(clients)])
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	if result.FailedScenarios == 0 && failures > 0 {
		result.FailedScenarios = failures
		result.ErrorRate = ratio(result.FailedScenarios, result.TotalScenarios)
	}
	return result
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}

		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

func runScenario(client orderClient, cfg config, index int, runID string, col *collector) error {
	scenarioStart := time.Now()
	scenarioCode := codes.OK
	defer func() {
		col.record(scenarioMethod, time.Since(scenarioStart), scenarioCode)
	}()

	req := &ordering.PlaceOrderRequest{Items: make([]ordering.ItemRequest, 0, len(cfg.productIDs))}
	for _, productID := range cfg.productIDs {
		req.Items = append(req.Items, ordering.ItemRequest{ProductID: productID, Quantity: int32(cfg.quantity)})
	}

	key := fmt.Sprintf("lt-place-%s-%d", runID, index)
	resp, err := timedCall(col, "PlaceOrder", cfg, func(ctx context.Context) (*ordering.Response, error) {
		ctx = metadata.AppendToOutgoingContext(ctx, grpcsvc.IdempotencyMetadataKey, key)
		return client.PlaceOrder(ctx, req)
	})
	if err != nil {
		scenarioCode = grpcCode(err)
		return err
	}
	if resp.Order == nil || resp.Order.ID <= 0 || len(resp.Order.Items) == 0 {
		scenarioCode = codes.Internal
		return errors.New("place order response has no order")
	}
	order := resp.Order

	switch cfg.mode {
	case modePlaceRead:
		_, err = timedCall(col, "GetOrder", cfg, func(ctx context.Context) (*ordering.Response, error) {
			return client.GetOrder(ctx, &grpcsvc.GetOrderRequest{OrderID: order.ID})
		})
	case modePlaceShip:
		if shouldShipScenario(index, cfg.shipRate) {
			_, err = timedCall(col, "UpdateLineItemStatus", cfg, func(ctx context.Context) (*ordering.Response, error) {
				return client.UpdateLineItemStatus(ctx, &grpcsvc.UpdateLineItemStatusRequest{
					LineItemID: order.Items[0].ID,
					Status:     string(domain.LineItemStatusShipped),
				})
			})
		}
	}
	if err != nil {
		scenarioCode = grpcCode(err)
	}
	return err
}

// timedCall выполняет вызов с таймаутом и от имени actorID, записывая задержку и код.
func timedCall(col *collector, method string, cfg config, call func(ctx context.Context) (*ordering.Response, error)) (*ordering.Response, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, identity.MetadataKey, strconv.FormatInt(cfg.actorID, 10))

	resp, err := call(ctx)
	col.record(method, time.Since(start), grpcCode(err))
	return resp, err
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}

func shouldShipScenario(index, shipRate int) bool {
	if shipRate <= 0 {
		return false
	}
	if shipRate >= 100 {
		return true
	}
	return index%100 < shipRate
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- путь задаётся явным флагом -output.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(result report, cfg config) {
	fmt.Println("Load test summary")
	fmt.Printf("mode=%s run=%s total=%d success=%d failed=%d error_rate=%.4f\n",
		cfg.mode, runTarget(cfg), result.TotalScenarios, result.SuccessScenarios, result.FailedScenarios, result.ErrorRate)
	fmt.Printf("duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)

	latency := result.ScenarioLatencyMs
	fmt.Printf("scenario latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		latency.Min, latency.Avg, latency.P50, latency.P95, latency.P99, latency.Max)

	methodNames := make([]string, 0, len(result.Methods))
	for name := range result.Methods {
		if name != scenarioMethod {
			methodNames = append(methodNames, name)
		}
	}
	sort.Strings(methodNames)
	for _, name := range methodNames {
		stats := result.Methods[name]
		fmt.Printf("%s: calls=%d success=%d failed=%d error_rate=%.4f p95=%.2fms\n",
			name, stats.Calls, stats.Success, stats.Failed, stats.ErrorRate, stats.LatencyMs.P95)
	}
}

func runTarget(cfg config) string {
	switch {
	case cfg.duration <= 0:
		return fmt.Sprintf("count:%d", cfg.total)
	case cfg.totalSet:
		return fmt.Sprintf("duration:%s,max-total:%d", cfg.duration, cfg.total)
	default:
		return fmt.Sprintf("duration:%s", cfg.duration)
	}
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// percentile — линейная интерполяция между соседними рангами.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
