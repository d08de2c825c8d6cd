// Package ops exposes the operational HTTP surface of a running engine:
// health probes, embedding usage reporting, and Prometheus metrics.
package ops

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domusage "github.com/fanlore-io/creatordex/internal/domain/usage"
	"github.com/fanlore-io/creatordex/internal/logger"
	healthuc "github.com/fanlore-io/creatordex/internal/usecase/health"
	usageuc "github.com/fanlore-io/creatordex/internal/usecase/usage"
)

// Server holds the ops endpoint handlers.
type Server struct {
	health *healthuc.Service
	usage  *usageuc.Service
}

// NewServer creates an ops HTTP server.
func NewServer(health *healthuc.Service, usage *usageuc.Service) *Server {
	return &Server{health: health, usage: usage}
}

// healthResponse is the wire form of a health report.
type healthResponse struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks"`
	SnapshotAgeSec *int64            `json:"snapshot_age_sec,omitempty"`
	SnapshotSize   *int              `json:"snapshot_size,omitempty"`
}

// Healthz handles GET /healthz with a full component report.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	resp := healthResponse{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for k, v := range report.Checks {
		resp.Checks[k] = string(v)
	}
	if _, ok := report.Checks["snapshot"]; ok {
		age := int64(report.SnapshotAge / time.Second)
		size := report.SnapshotSize
		resp.SnapshotAgeSec = &age
		resp.SnapshotSize = &size
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
		logger.FromContext(r.Context()).Warn("health check not ok",
			zap.String("status", string(report.Status)),
			zap.Any("checks", resp.Checks),
		)
	}
	writeJSON(w, status, resp)
}

// Readyz handles GET /readyz. Ready means the store is reachable; an instance
// with a degraded embedding provider still serves keyword traffic.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	if report.Status == healthuc.Unhealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": string(report.Status)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// usageResponse is the wire form of a usage report.
type usageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	TokensUsed    int64        `json:"tokens_used"`
	Budget        budgetStatus `json:"budget"`
}

type budgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// Usage handles GET /usage?period=day|month|total.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period := domusage.PeriodMonth
	switch r.URL.Query().Get("period") {
	case "", "month":
	case "day":
		period = domusage.PeriodDay
	case "total":
		period = domusage.PeriodTotal
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "period must be day, month or total")
		return
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := usageResponse{
		Period:     string(report.Period()),
		TokensUsed: report.TokensUsed(),
		Budget: budgetStatus{
			TokensLimit:     report.Budget().TokensLimit(),
			TokensRemaining: report.Budget().TokensRemaining(),
			IsExhausted:     report.Budget().IsExhausted(),
		},
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
