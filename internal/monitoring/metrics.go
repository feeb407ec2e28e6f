package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultCheckTimeout = 5 * time.Second

type Metrics struct {
	RequestCount    int64            `json:"request_count"`
	RequestDuration int64            `json:"avg_request_duration_ms"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
}

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc contributes a named section to the metrics endpoint.
type StatsFunc func() map[string]interface{}

// Monitor collects request metrics and runs registered health checks on
// demand. Create one per server.
type Monitor struct {
	mu            sync.Mutex
	requestCount  int64
	activeCount   int64
	errorCount    int64
	totalDuration time.Duration
	statusCodes   map[string]int64
	endpoints     map[string]int64
	startTime     time.Time
	lastRequest   time.Time

	checksMu     sync.RWMutex
	checks       map[string]HealthCheckFunc
	stats        map[string]StatsFunc
	checkTimeout time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{
		statusCodes:  make(map[string]int64),
		endpoints:    make(map[string]int64),
		startTime:    time.Now(),
		checks:       make(map[string]HealthCheckFunc),
		stats:        make(map[string]StatsFunc),
		checkTimeout: defaultCheckTimeout,
	}
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.activeCount++
		m.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			endpoint = c.Request.Method + " unmatched"
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		m.requestCount++
		m.activeCount--
		m.totalDuration += duration
		m.lastRequest = time.Now()
		if statusCode >= http.StatusBadRequest {
			m.errorCount++
		}
		m.statusCodes[http.StatusText(statusCode)]++
		m.endpoints[endpoint]++
	}
}

func (m *Monitor) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := Metrics{
		RequestCount:   m.requestCount,
		ActiveRequests: m.activeCount,
		ErrorCount:     m.errorCount,
		StatusCodes:    make(map[string]int64, len(m.statusCodes)),
		Endpoints:      make(map[string]int64, len(m.endpoints)),
		StartTime:      m.startTime,
		LastRequest:    m.lastRequest,
	}
	if m.requestCount > 0 {
		snapshot.RequestDuration = (m.totalDuration / time.Duration(m.requestCount)).Milliseconds()
	}
	for k, v := range m.statusCodes {
		snapshot.StatusCodes[k] = v
	}
	for k, v := range m.endpoints {
		snapshot.Endpoints[k] = v
	}
	return snapshot
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

func (m *Monitor) System() SystemMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemMetrics{
		Uptime: time.Since(m.startTime).Round(time.Second).String(),
		MemoryUsage: MemoryStats{
			Alloc:      bToMb(mem.Alloc),
			TotalAlloc: bToMb(mem.TotalAlloc),
			Sys:        bToMb(mem.Sys),
			NumGC:      mem.NumGC,
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// RegisterCheck adds a readiness dependency. Checks run on every health or
// readiness request.
func (m *Monitor) RegisterCheck(name string, check HealthCheckFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.checks[name] = check
}

func (m *Monitor) RegisterStats(name string, stats StatsFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.stats[name] = stats
}

// RunChecks runs every registered check concurrently and reports whether all
// of them passed.
func (m *Monitor) RunChecks(ctx context.Context) (map[string]HealthCheck, bool) {
	m.checksMu.RLock()
	checks := make(map[string]HealthCheckFunc, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.checksMu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]HealthCheck, len(checks))
		healthy = true
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheckFunc) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, m.checkTimeout)
			defer cancel()

			result := HealthCheck{Name: name, Status: "healthy", LastRun: time.Now()}
			if err := check(checkCtx); err != nil {
				result.Status = "unhealthy"
				result.Message = err.Error()
			}

			mu.Lock()
			results[name] = result
			if result.Status != "healthy" {
				healthy = false
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return results, healthy
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.checksMu.RLock()
		names := make([]string, 0, len(m.stats))
		for name := range m.stats {
			names = append(names, name)
		}
		sort.Strings(names)
		components := make(map[string]interface{}, len(names))
		for _, name := range names {
			components[name] = m.stats[name]()
		}
		m.checksMu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"application": m.Snapshot(),
			"system":      m.System(),
			"components":  components,
			"timestamp":   time.Now(),
		})
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, healthy := m.RunChecks(c.Request.Context())

		overallStatus := "healthy"
		status := http.StatusOK
		if !healthy {
			overallStatus = "unhealthy"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(m.startTime).Round(time.Second).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ready := m.RunChecks(c.Request.Context()); !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(m.startTime).Round(time.Second).String(),
		})
	}
}
