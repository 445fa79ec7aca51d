// Package metrics exposes registry activity as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sghaida/keg/di"
)

// Resolution outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeUnknown   = "unknown_token"
	OutcomeAmbiguous = "ambiguous"
	OutcomeMissing   = "dependency_not_found"
	OutcomeCycle     = "cycle"
	OutcomePanic     = "panic"
	OutcomeError     = "error"
)

// Collector implements di.Observer and prometheus.Collector.
//
//	c := metrics.NewCollector("app")
//	prometheus.MustRegister(c)
//	r := di.NewRegistry(di.WithObserver(c))
type Collector struct {
	resolutions      *prometheus.CounterVec
	constructions    *prometheus.CounterVec
	constructionTime prometheus.Histogram
	registeredTotal  prometheus.Gauge
}

var _ di.Observer = (*Collector)(nil)

// NewCollector creates a collector whose metric names start with namespace
// (for example "app_keg_resolutions_total"). An empty namespace yields
// "keg_resolutions_total".
func NewCollector(namespace string) *Collector {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "keg",
				Name:      "resolutions_total",
				Help:      "Total number of top-level resolution requests by outcome",
			},
			[]string{"outcome"},
		),
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "keg",
				Name:      "constructions_total",
				Help:      "Total number of factory and constructor invocations by result",
			},
			[]string{"result"},
		),
		constructionTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "keg",
				Name:      "construction_seconds",
				Help:      "Time spent constructing provider instances, dependencies included",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		registeredTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "keg",
				Name:      "registered_providers",
				Help:      "Number of providers currently registered",
			},
		),
	}

	// Initialize so the series appear before the first resolution.
	c.resolutions.WithLabelValues(OutcomeOK).Add(0)
	c.constructions.WithLabelValues("success").Add(0)
	c.constructions.WithLabelValues("failure").Add(0)
	return c
}

// ProviderRegistered implements di.Observer.
func (c *Collector) ProviderRegistered(*di.Provider) { c.registeredTotal.Inc() }

// TokenResolved implements di.Observer.
func (c *Collector) TokenResolved(_ di.Token, err error) {
	c.resolutions.WithLabelValues(Outcome(err)).Inc()
}

// ProviderConstructed implements di.Observer.
func (c *Collector) ProviderConstructed(_ *di.Provider, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.constructions.WithLabelValues(result).Inc()
	c.constructionTime.Observe(took.Seconds())
}

// RegistryCleared implements di.Observer.
func (c *Collector) RegistryCleared() { c.registeredTotal.Set(0) }

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.resolutions.Describe(ch)
	c.constructions.Describe(ch)
	c.constructionTime.Describe(ch)
	c.registeredTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.resolutions.Collect(ch)
	c.constructions.Collect(ch)
	c.constructionTime.Collect(ch)
	c.registeredTotal.Collect(ch)
}

// Outcome classifies a resolution error into a label value.
func Outcome(err error) string {
	var (
		unknown   di.UnknownTokenError
		ambiguous di.AmbiguousBindingError
		missing   di.DependencyNotFoundError
		cycle     di.CyclicDependencyError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &missing):
		return OutcomeMissing
	case errors.As(err, &unknown):
		return OutcomeUnknown
	case errors.As(err, &ambiguous):
		return OutcomeAmbiguous
	case errors.As(err, &cycle):
		return OutcomeCycle
	case errors.Is(err, di.ErrProviderPanic):
		return OutcomePanic
	default:
		return OutcomeError
	}
}
