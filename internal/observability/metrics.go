package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
)

// Metrics holds the simulator's Prometheus collectors. Every label has a
// bounded value set; combatant IDs are never used as labels.
//
// Metrics implements contact.Recorder and sim.Observer.
type Metrics struct {
	registry     *prometheus.Registry
	contacts     *prometheus.CounterVec
	damage       prometheus.Counter
	transitions  *prometheus.CounterVec
	swingClears  prometheus.Counter
	tickDuration prometheus.Histogram
	lastTick     prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		contacts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardbreak_contacts_total",
			Help: "Resolved weapon contacts",
		}, []string{"kind", "path", "swing"}),
		damage: f.NewCounter(prometheus.CounterOpts{
			Name: "guardbreak_damage_total",
			Help: "Hit points removed by weapon contacts",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardbreak_enemy_transitions_total",
			Help: "Enemy behaviour state changes",
		}, []string{"to"}),
		swingClears: f.NewCounter(prometheus.CounterOpts{
			Name: "guardbreak_stuck_swing_clears_total",
			Help: "Swings forced back to none by the resolver watchdog",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardbreak_tick_duration_seconds",
			Help:    "Time spent in one simulation tick",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02},
		}),
		lastTick: f.NewGauge(prometheus.GaugeOpts{
			Name: "guardbreak_tick",
			Help: "Last completed simulation tick",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Record implements contact.Recorder.
func (m *Metrics) Record(kind contact.Kind, ev contact.Event) {
	m.contacts.WithLabelValues(kind.String(), string(ev.Path), ev.Swing.String()).Inc()
	if kind == contact.Damaged {
		m.damage.Add(float64(ev.Damage))
	}
}

// TickCompleted implements sim.Observer.
func (m *Metrics) TickCompleted(tick clock.Tick, elapsed time.Duration) {
	m.tickDuration.Observe(elapsed.Seconds())
	m.lastTick.Set(float64(tick))
}

// StateChanged implements sim.Observer.
func (m *Metrics) StateChanged(_ string, _, to enemy.State) {
	m.transitions.WithLabelValues(to.String()).Inc()
}

// SwingCleared implements sim.Observer.
func (m *Metrics) SwingCleared(string) { m.swingClears.Inc() }

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return r
}

// MetricsServer exposes Metrics over HTTP. It implements server.Service.
type MetricsServer struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a server listening on addr.
func NewMetricsServer(addr string, m *Metrics, logger *zap.Logger) *MetricsServer {
	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Stop.
func (s *MetricsServer) Start() error {
	s.logger.Info("metrics listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *MetricsServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics shutdown", zap.Error(err))
	}
}
