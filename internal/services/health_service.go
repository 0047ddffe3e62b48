package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"datalens/internal/dataset"
	ws "datalens/internal/websocket"
)

// HealthService reports liveness and basic runtime statistics.
type HealthService struct {
	version   string
	buildTime string
	store     *dataset.Store
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Version   string       `json:"version"`
	Uptime    string       `json:"uptime"`
	Runtime   RuntimeStats `json:"runtime"`
}

// RuntimeStats captures process-level numbers for the health endpoint.
type RuntimeStats struct {
	Datasets         int    `json:"datasets"`
	WebSocketClients int    `json:"websocket_clients"`
	Goroutines       int    `json:"goroutines"`
	GoVersion        string `json:"go_version"`
	OS               string `json:"os"`
	Arch             string `json:"arch"`
}

// ProbeResult is the liveness/readiness probe response.
type ProbeResult struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// VersionInfo is the version endpoint response.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

// NewHealthService creates a health service. hub may be nil.
func NewHealthService(version, buildTime string, store *dataset.Store, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Status returns the current health snapshot.
func (s *HealthService) Status(ctx context.Context) *HealthStatus {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	return &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: RuntimeStats{
			Datasets:         s.store.Len(),
			WebSocketClients: clients,
			Goroutines:       runtime.NumGoroutine(),
			GoVersion:        runtime.Version(),
			OS:               runtime.GOOS,
			Arch:             runtime.GOARCH,
		},
	}
}

// Live reports process liveness, nothing more.
func (s *HealthService) Live(ctx context.Context) *ProbeResult {
	return &ProbeResult{Status: "alive", Timestamp: time.Now().UTC()}
}

// Ready reports whether the service can accept uploads. The store is the only
// hard dependency; a nil store means the application is still wiring up.
func (s *HealthService) Ready(ctx context.Context) *ProbeResult {
	status := "ready"
	if s.store == nil {
		status = "not_ready"
	}
	return &ProbeResult{Status: status, Timestamp: time.Now().UTC()}
}

// Version returns build information.
func (s *HealthService) Version(ctx context.Context) *VersionInfo {
	return &VersionInfo{
		Version:   s.version,
		BuildTime: s.buildTime,
		GoVersion: runtime.Version(),
	}
}
