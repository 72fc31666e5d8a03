// Package web exposes the diagnostics HTTP surface: liveness, a JSON health
// report and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/monitor"
)

// PlanReader lists registered plans for the diagnostics report.
type PlanReader interface {
	All() []domain.ConditionalPlan
}

// DataAgeReader reports freshness of one instrument's candle buffer.
type DataAgeReader interface {
	Age(instrument string) (time.Duration, bool)
}

// Server exposes HTTP endpoints for health checks and metrics scraping.
type Server struct {
	addr    string
	monitor *monitor.Monitor
	plans   PlanReader
	ages    DataAgeReader
	logger  *zap.Logger
}

// NewServer creates a diagnostics server.
func NewServer(addr string, mon *monitor.Monitor, plans PlanReader, ages DataAgeReader, logger *zap.Logger) *Server {
	return &Server{addr: addr, monitor: mon, plans: plans, ages: ages, logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/diagnostics", s.handleDiagnostics)
	mux.Handle("/metrics", promhttp.HandlerFor(s.monitor.Registry(), promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("diagnostics server listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type diagnosticsReport struct {
	Health monitor.Summary          `json:"health"`
	Plans  []domain.ConditionalPlan `json:"plans"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	report := diagnosticsReport{
		Health: s.monitor.Summarize(func(instrument string) time.Duration {
			age, ok := s.ages.Age(instrument)
			if !ok {
				return 0
			}
			return age
		}),
	}
	if s.plans != nil {
		report.Plans = s.plans.All()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Warn("diagnostics encode failed", zap.Error(err))
	}
}
