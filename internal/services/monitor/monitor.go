// Package monitor collects operational health signals: refresh latencies and
// failures, data freshness drift, analysis activity and process resource
// usage. Metrics are exported through a private Prometheus registry and a
// pull-based summary for the diagnostics endpoint.
package monitor

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const recentEventLimit = 100

// Event one noteworthy operational occurrence kept in the recent ring.
type Event struct {
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	Instrument string    `json:"instrument"`
	Detail     string    `json:"detail"`
}

// InstrumentHealth per-instrument freshness view.
type InstrumentHealth struct {
	Instrument   string        `json:"instrument"`
	LastRefresh  time.Time     `json:"last_refresh"`
	DataAge      time.Duration `json:"data_age"`
	DataAgeDrift time.Duration `json:"data_age_drift"`
	LastLatency  time.Duration `json:"last_latency"`
	RefreshCount int64         `json:"refresh_count"`
	FailureCount int64         `json:"failure_count"`
	LastError    string        `json:"last_error,omitempty"`
}

// Summary point-in-time health report for the diagnostics endpoint.
type Summary struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Uptime      time.Duration      `json:"uptime"`
	Goroutines  int                `json:"goroutines"`
	HeapBytes   uint64             `json:"heap_bytes"`
	Instruments []InstrumentHealth `json:"instruments"`
	Recent      []Event            `json:"recent_events"`
}

type instrumentState struct {
	lastRefresh  time.Time
	lastLatency  time.Duration
	lastDrift    time.Duration
	refreshCount int64
	failureCount int64
	lastError    string
}

// Monitor aggregates health state. Implements the candle cache's
// RefreshObserver so refreshes report here without the cache knowing about
// metrics.
type Monitor struct {
	logger    *zap.Logger
	registry  *prometheus.Registry
	startedAt time.Time

	refreshLatency  *prometheus.HistogramVec
	refreshFailures *prometheus.CounterVec
	candlesAppended *prometheus.CounterVec
	dataAge         *prometheus.GaugeVec
	dataAgeDrift    *prometheus.GaugeVec
	analysisRuns    prometheus.Counter
	plansTriggered  prometheus.Counter

	mu          sync.RWMutex
	instruments map[string]*instrumentState
	recent      []Event
}

// New creates a monitor with its own registry, so tests can run many
// monitors without duplicate-collector panics.
func New(logger *zap.Logger) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		logger:      logger,
		registry:    reg,
		startedAt:   time.Now(),
		instruments: make(map[string]*instrumentState),
		refreshLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "synergis",
			Name:      "refresh_latency_seconds",
			Help:      "Candle refresh round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"instrument"}),
		refreshFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synergis",
			Name:      "refresh_failures_total",
			Help:      "Candle refresh failures.",
		}, []string{"instrument"}),
		candlesAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synergis",
			Name:      "candles_appended_total",
			Help:      "Candles appended to the cache.",
		}, []string{"instrument"}),
		dataAge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "synergis",
			Name:      "data_age_seconds",
			Help:      "Age of the newest cached candle per instrument.",
		}, []string{"instrument"}),
		dataAgeDrift: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "synergis",
			Name:      "data_age_drift_seconds",
			Help:      "Data age minus the instrument's expected refresh interval.",
		}, []string{"instrument"}),
		analysisRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synergis",
			Name:      "analysis_runs_total",
			Help:      "Full microstructure analysis passes.",
		}),
		plansTriggered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synergis",
			Name:      "plans_triggered_total",
			Help:      "Conditional plans whose conditions were met.",
		}),
	}
}

// Registry exposes the private registry for the /metrics handler.
func (m *Monitor) Registry() *prometheus.Registry { return m.registry }

// RecordRefresh satisfies candlecache.RefreshObserver.
func (m *Monitor) RecordRefresh(instrument string, latency time.Duration, appended int, err error) {
	m.refreshLatency.WithLabelValues(instrument).Observe(latency.Seconds())
	if appended > 0 {
		m.candlesAppended.WithLabelValues(instrument).Add(float64(appended))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.instruments[instrument]
	if st == nil {
		st = &instrumentState{}
		m.instruments[instrument] = st
	}
	st.lastLatency = latency
	if err != nil {
		st.failureCount++
		st.lastError = err.Error()
		m.refreshFailures.WithLabelValues(instrument).Inc()
		m.appendEventLocked(Event{
			At:         time.Now(),
			Kind:       "refresh_failure",
			Instrument: instrument,
			Detail:     err.Error(),
		})
		return
	}
	st.refreshCount++
	st.lastRefresh = time.Now()
	st.lastError = ""
}

// ObserveDataAge updates the freshness gauges for one instrument. Drift is
// the age relative to the expected refresh cadence; negative while the data
// is fresher than its tier demands.
func (m *Monitor) ObserveDataAge(instrument string, age, expected time.Duration) {
	drift := age - expected
	m.dataAge.WithLabelValues(instrument).Set(age.Seconds())
	m.dataAgeDrift.WithLabelValues(instrument).Set(drift.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.instruments[instrument]
	if st == nil {
		st = &instrumentState{}
		m.instruments[instrument] = st
	}
	st.lastDrift = drift
}

// RecordAnalysis counts a full analysis pass.
func (m *Monitor) RecordAnalysis() { m.analysisRuns.Inc() }

// RecordPlanTriggered counts a plan whose conditions were met and records it
// in the recent ring.
func (m *Monitor) RecordPlanTriggered(instrument, planID string) {
	m.plansTriggered.Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendEventLocked(Event{
		At:         time.Now(),
		Kind:       "plan_triggered",
		Instrument: instrument,
		Detail:     planID,
	})
}

// RecordEvent pushes an arbitrary operational event into the recent ring.
func (m *Monitor) RecordEvent(kind, instrument, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendEventLocked(Event{At: time.Now(), Kind: kind, Instrument: instrument, Detail: detail})
}

func (m *Monitor) appendEventLocked(e Event) {
	m.recent = append(m.recent, e)
	if len(m.recent) > recentEventLimit {
		m.recent = m.recent[len(m.recent)-recentEventLimit:]
	}
}

// Summarize builds the pull-based health report. Monitoring never blocks the
// decision path; this only reads accumulated state.
func (m *Monitor) Summarize(dataAge func(instrument string) time.Duration) Summary {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{
		GeneratedAt: time.Now(),
		Uptime:      time.Since(m.startedAt),
		Goroutines:  runtime.NumGoroutine(),
		HeapBytes:   mem.HeapAlloc,
		Recent:      append([]Event(nil), m.recent...),
	}
	for id, st := range m.instruments {
		h := InstrumentHealth{
			Instrument:   id,
			LastRefresh:  st.lastRefresh,
			DataAgeDrift: st.lastDrift,
			LastLatency:  st.lastLatency,
			RefreshCount: st.refreshCount,
			FailureCount: st.failureCount,
			LastError:    st.lastError,
		}
		if dataAge != nil {
			h.DataAge = dataAge(id)
		}
		s.Instruments = append(s.Instruments, h)
	}
	return s
}
