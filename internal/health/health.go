package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is any dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type StorageHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentHealth struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Latency  int64  `json:"latency_ms"`
	Error    string `json:"error,omitempty"`
	Critical bool   `json:"critical"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Checker probes the analytics backend and the optional chat and report
// stores. Only the backend is critical; a failing store degrades the status.
type Checker struct {
	backend Pinger
	redis   *redis.Client
	storage StorageHealthChecker
	timeout time.Duration
}

func NewChecker(backend Pinger) *Checker {
	return &Checker{backend: backend, timeout: 5 * time.Second}
}

func (c *Checker) WithRedis(client *redis.Client) *Checker {
	c.redis = client
	return c
}

func (c *Checker) WithStorage(s StorageHealthChecker) *Checker {
	c.storage = s
	return c
}

type probe struct {
	name     string
	critical bool
	check    func(context.Context) error
}

func (c *Checker) probes() []probe {
	var out []probe
	if c.backend != nil {
		out = append(out, probe{"backend", true, c.backend.Ping})
	}
	if c.redis != nil {
		out = append(out, probe{"redis", false, func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}})
	}
	if c.storage != nil {
		out = append(out, probe{"storage", false, c.storage.HealthCheck})
	}
	return out
}

func (c *Checker) CheckAll(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	probes := c.probes()
	components := make([]ComponentHealth, len(probes))

	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			components[i] = run(ctx, p)
		}(i, p)
	}
	wg.Wait()

	status := StatusHealthy
	for _, comp := range components {
		if comp.Status != StatusUnhealthy {
			continue
		}
		if comp.Critical {
			status = StatusUnhealthy
			break
		}
		status = StatusDegraded
	}

	return HealthResponse{
		Status:     status,
		Components: components,
		Timestamp:  time.Now(),
	}
}

func run(ctx context.Context, p probe) ComponentHealth {
	start := time.Now()
	err := p.check(ctx)
	comp := ComponentHealth{
		Name:     p.name,
		Status:   StatusHealthy,
		Latency:  time.Since(start).Milliseconds(),
		Critical: p.critical,
	}
	if err != nil {
		comp.Status = StatusUnhealthy
		comp.Error = err.Error()
	}
	return comp
}

func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": string(StatusHealthy)})
	}
}

func ReadinessHandler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := checker.CheckAll(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
