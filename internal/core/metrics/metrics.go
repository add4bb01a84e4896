// Package metrics exposes Prometheus collectors for command dispatch.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const metricPrefix = "adbdeck_"

// Collectors groups the dispatch metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	commands *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	queued   prometheus.Gauge
	streams  prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests use to observe values directly.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_total",
				Help: "Total dispatched commands by tool",
			},
			[]string{"tool"},
		),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_results_total",
				Help: "Total command results by tool and kind",
			},
			[]string{"tool", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "command_duration_seconds",
				Help:    "Command wall time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "commands_in_flight",
			Help: "External processes currently running",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "commands_queued",
			Help: "Submitted commands waiting for a worker slot",
		}),
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "streams_active",
			Help: "Streaming captures currently attached",
		}),
	}

	if reg != nil {
		reg.MustRegister(c.commands, c.results, c.duration, c.inFlight, c.queued, c.streams)
	}
	return c
}

// IncIssued counts a command handed to the executor.
func (c *Collectors) IncIssued(tool string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(tool).Inc()
}

// ObserveResult records the outcome and duration of a finished command.
func (c *Collectors) ObserveResult(tool, kind string, d time.Duration) {
	if c == nil {
		return
	}
	c.results.WithLabelValues(tool, kind).Inc()
	c.duration.WithLabelValues(tool).Observe(d.Seconds())
}

// AddInFlight adjusts the running process gauge.
func (c *Collectors) AddInFlight(delta float64) {
	if c == nil {
		return
	}
	c.inFlight.Add(delta)
}

// AddQueued adjusts the waiting task gauge.
func (c *Collectors) AddQueued(delta float64) {
	if c == nil {
		return
	}
	c.queued.Add(delta)
}

// AddStreams adjusts the active stream gauge.
func (c *Collectors) AddStreams(delta float64) {
	if c == nil {
		return
	}
	c.streams.Add(delta)
}

// NewRouter routes /metrics to the gatherer and answers /healthz.
func NewRouter(g prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// Serve exposes the registry on addr at /metrics until ctx is done.
// The listener is bound before Serve returns so address errors surface
// to the caller.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{Handler: NewRouter(g), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("metrics endpoint available")
	return nil
}
