// Package health exposes liveness and readiness endpoints for the poller.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker is a component that can report its own health.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker aggregates component checks. The poller registers the
// Modbus transport and, when enabled, the MQTT mirror.
type HealthChecker struct {
	config  Config
	mu      sync.RWMutex
	checks  map[string]Checker
	started time.Time
}

// Config holds health checker configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	CheckTimeout   time.Duration
}

// CheckStatus is the result of one component check.
type CheckStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// Response is the full health response body.
type Response struct {
	Status    string                  `json:"status"`
	Service   string                  `json:"service"`
	Version   string                  `json:"version"`
	Timestamp time.Time               `json:"timestamp"`
	Uptime    string                  `json:"uptime"`
	Checks    map[string]*CheckStatus `json:"checks,omitempty"`
}

// NewChecker creates a health checker.
func NewChecker(config Config) *HealthChecker {
	if config.CheckTimeout == 0 {
		config.CheckTimeout = 5 * time.Second
	}
	return &HealthChecker{
		config:  config,
		checks:  make(map[string]Checker),
		started: time.Now(),
	}
}

// AddCheck registers a component check under a name.
func (h *HealthChecker) AddCheck(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = checker
}

// Check runs all registered checks and returns the aggregate status. The
// poller has at most two dependencies, so checks run sequentially.
func (h *HealthChecker) Check(ctx context.Context) *Response {
	h.mu.RLock()
	checks := make(map[string]Checker, len(h.checks))
	for name, checker := range h.checks {
		checks[name] = checker
	}
	h.mu.RUnlock()

	response := &Response{
		Status:    "healthy",
		Service:   h.config.ServiceName,
		Version:   h.config.ServiceVersion,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Checks:    make(map[string]*CheckStatus, len(checks)),
	}

	for name, checker := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.config.CheckTimeout)
		status := &CheckStatus{Name: name, Status: "healthy", LastCheck: time.Now()}
		if err := checker.HealthCheck(checkCtx); err != nil {
			status.Status = "unhealthy"
			status.Error = err.Error()
			response.Status = "unhealthy"
		}
		cancel()
		response.Checks[name] = status
	}

	return response
}

// Handler serves the readiness endpoint: 200 when every registered check
// passes, 503 otherwise.
func (h *HealthChecker) Handler(w http.ResponseWriter, r *http.Request) {
	response := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(response)
}

// LivenessHandler serves the liveness endpoint: 200 whenever the process
// is able to answer at all.
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	response := &Response{
		Status:    "healthy",
		Service:   h.config.ServiceName,
		Version:   h.config.ServiceVersion,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
