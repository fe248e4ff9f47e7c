package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes frame timing, dye color and command counts to Prometheus.
// A nil *Metrics ignores every observation.
type Metrics struct {
	registry *prometheus.Registry

	tickDuration *prometheus.HistogramVec
	dyeAverage   *prometheus.GaugeVec
	dyeStdDev    *prometheus.GaugeVec
	commands     *prometheus.CounterVec
	splats       prometheus.Counter
}

// NewMetrics creates collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkflow_tick_duration_seconds",
				Help:    "Time spent in one frame tick",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"paused"},
		),
		dyeAverage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inkflow_dye_average",
				Help: "Average displayed dye intensity per channel (0-255)",
			},
			[]string{"channel"},
		),
		dyeStdDev: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inkflow_dye_stddev",
				Help: "Standard deviation of displayed dye per channel (0-255)",
			},
			[]string{"channel"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkflow_commands_total",
				Help: "Commands applied at tick boundaries",
			},
			[]string{"type"},
		),
		splats: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inkflow_splats_total",
				Help: "Impulses deposited into the fields",
			},
		),
	}
	m.registry.MustRegister(m.tickDuration, m.dyeAverage, m.dyeStdDev, m.commands, m.splats)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTick records one tick duration.
func (m *Metrics) ObserveTick(d time.Duration, paused bool) {
	if m == nil {
		return
	}
	label := "false"
	if paused {
		label = "true"
	}
	m.tickDuration.WithLabelValues(label).Observe(d.Seconds())
}

// ObserveColor publishes a dye statistics sample.
func (m *Metrics) ObserveColor(c ColorSample) {
	if m == nil {
		return
	}
	m.dyeAverage.WithLabelValues("r").Set(float64(c.AvgR))
	m.dyeAverage.WithLabelValues("g").Set(float64(c.AvgG))
	m.dyeAverage.WithLabelValues("b").Set(float64(c.AvgB))
	m.dyeStdDev.WithLabelValues("r").Set(float64(c.StdR))
	m.dyeStdDev.WithLabelValues("g").Set(float64(c.StdG))
	m.dyeStdDev.WithLabelValues("b").Set(float64(c.StdB))
}

// CountCommand increments the counter for a command type.
func (m *Metrics) CountCommand(kind string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind).Inc()
}

// CountSplats adds n deposited impulses.
func (m *Metrics) CountSplats(n int) {
	if m == nil {
		return
	}
	m.splats.Add(float64(n))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
