// Package metrics exports plugin configuration activity to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	overrides "github.com/goliatone/go-overrides"
)

// DefaultNamespace is used when NewCollector receives an empty namespace.
const DefaultNamespace = "plugin_config"

const (
	statusOK    = "ok"
	statusError = "error"
)

// Collector implements overrides.Observer with Prometheus collectors.
type Collector struct {
	initDuration       *prometheus.HistogramVec
	overrideCount      *prometheus.GaugeVec
	resolutionDuration *prometheus.HistogramVec
	overridesApplied   *prometheus.CounterVec
}

// NewCollector registers the configuration metrics on reg. Collectors that are
// already registered under the same name are reused, so several managers can
// share one registry.
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		initDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "init_duration_seconds",
			Help:      "Latency of plugin configuration initialization.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin", "status"}),
		overrideCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overrides",
			Help:      "Number of validated overrides held by an initialized plugin.",
		}, []string{"plugin"}),
		resolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Latency of effective configuration resolution.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"plugin", "status"}),
		overridesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_applied_total",
			Help:      "Count of overrides folded into resolved configurations.",
		}, []string{"plugin"}),
	}

	var err error
	if c.initDuration, err = register(reg, c.initDuration, "init histogram"); err != nil {
		return nil, err
	}
	if c.overrideCount, err = register(reg, c.overrideCount, "override gauge"); err != nil {
		return nil, err
	}
	if c.resolutionDuration, err = register(reg, c.resolutionDuration, "resolution histogram"); err != nil {
		return nil, err
	}
	if c.overridesApplied, err = register(reg, c.overridesApplied, "applied counter"); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCollector is NewCollector that panics on registration errors.
func MustNewCollector(namespace string, reg prometheus.Registerer) *Collector {
	c, err := NewCollector(namespace, reg)
	if err != nil {
		panic(err)
	}
	return c
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T, label string) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("metrics: register %s: %w", label, err)
	}
	return collector, nil
}

// ObserveInit implements overrides.Observer.
func (c *Collector) ObserveInit(plugin string, count int, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.initDuration.WithLabelValues(plugin, status(err)).Observe(duration.Seconds())
	if err == nil {
		c.overrideCount.WithLabelValues(plugin).Set(float64(count))
	}
}

// ObserveResolution implements overrides.Observer.
func (c *Collector) ObserveResolution(plugin string, applied int, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.resolutionDuration.WithLabelValues(plugin, status(err)).Observe(duration.Seconds())
	if err == nil && applied > 0 {
		c.overridesApplied.WithLabelValues(plugin).Add(float64(applied))
	}
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}

var _ overrides.Observer = (*Collector)(nil)
