package observability

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RoutingCollector bundles Prometheus metrics for the detour search and
// provides a ready-to-use /metrics handler. All observation methods are
// safe to call on a nil collector, so callers never guard for metrics
// being disabled.
type RoutingCollector struct {
	gatherer prometheus.Gatherer

	Searches        *prometheus.CounterVec
	Candidates      *prometheus.CounterVec
	InsertionTrials *prometheus.CounterVec
	ZoneMembers     *prometheus.GaugeVec
	WeightRatio     prometheus.Histogram
}

// NewRoutingCollector registers routing Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewRoutingCollector(reg prometheus.Registerer) (*RoutingCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_searches_total",
		Help: "Total number of completed detour searches, labeled by outcome.",
	}, []string{"outcome"})
	searches, err := registerCounterVec(reg, searches, "routing_searches_total")
	if err != nil {
		return nil, err
	}

	candidates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_candidate_paths_total",
		Help: "Total number of qualifying candidate paths recorded, labeled by search strategy.",
	}, []string{"strategy"})
	candidates, err = registerCounterVec(reg, candidates, "routing_candidate_paths_total")
	if err != nil {
		return nil, err
	}

	insertions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_insertion_trials_total",
		Help: "Total number of weight-refinement insertion trials, labeled by result.",
	}, []string{"result"})
	insertions, err = registerCounterVec(reg, insertions, "routing_insertion_trials_total")
	if err != nil {
		return nil, err
	}

	zoneMembers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "routing_zone_members",
		Help: "Number of satellites located inside each configured zone.",
	}, []string{"zone"})
	zoneMembers, err = registerGaugeVec(reg, zoneMembers, "routing_zone_members")
	if err != nil {
		return nil, err
	}

	ratio := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routing_detour_weight_ratio",
		Help:    "Ratio of detour weight to baseline weight.",
		Buckets: []float64{1.0, 1.1, 1.25, 1.5, 1.75, 2, 2.5, 3, 4, 5},
	})
	ratio, err = registerHistogram(reg, ratio, "routing_detour_weight_ratio")
	if err != nil {
		return nil, err
	}

	return &RoutingCollector{
		gatherer:        gatherer,
		Searches:        searches,
		Candidates:      candidates,
		InsertionTrials: insertions,
		ZoneMembers:     zoneMembers,
		WeightRatio:     ratio,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RoutingCollector) Handler() http.Handler {
	var gatherer prometheus.Gatherer
	if c != nil {
		gatherer = c.gatherer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveSearch records the outcome of one completed search.
func (c *RoutingCollector) ObserveSearch(outcome string) {
	if c == nil || c.Searches == nil {
		return
	}
	c.Searches.WithLabelValues(outcome).Inc()
}

// ObserveCandidate records one qualifying candidate path for a strategy.
func (c *RoutingCollector) ObserveCandidate(strategy string) {
	if c == nil || c.Candidates == nil {
		return
	}
	c.Candidates.WithLabelValues(strategy).Inc()
}

// ObserveInsertion records one refinement insertion trial result.
func (c *RoutingCollector) ObserveInsertion(result string) {
	if c == nil || c.InsertionTrials == nil {
		return
	}
	c.InsertionTrials.WithLabelValues(result).Inc()
}

// SetZoneMembers records how many satellites a zone contains.
func (c *RoutingCollector) SetZoneMembers(zone, members int) {
	if c == nil || c.ZoneMembers == nil {
		return
	}
	c.ZoneMembers.WithLabelValues(strconv.Itoa(zone)).Set(float64(members))
}

// ObserveWeightRatio records the detour-to-baseline weight ratio.
func (c *RoutingCollector) ObserveWeightRatio(ratio float64) {
	if c == nil || c.WeightRatio == nil {
		return
	}
	c.WeightRatio.Observe(ratio)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
