// Package observability exposes the application's Prometheus metrics.
// All metrics live on a private registry so tests and Lambda cold starts
// never trip duplicate registration on the default one.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Chat pipeline metrics
	ChatRequests      *prometheus.CounterVec
	LLMLatency        prometheus.Histogram
	PromptTruncations prometheus.Counter

	// Merge metrics
	DeltasApplied     prometheus.Counter
	NodesAdded        prometheus.Counter
	NodesUpdated      prometheus.Counter
	NodesRemoved      prometheus.Counter
	EdgesAdded        prometheus.Counter
	EdgesRemoved      prometheus.Counter
	EdgesDropped      *prometheus.CounterVec
	IntegrityWarnings prometheus.Counter
}

// NewCollector creates a metrics collector with the given namespace. The
// collector is process-wide; repeated calls return the first instance so
// duplicate registration cannot occur.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	chatRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total number of chat mutation requests by outcome",
		},
		[]string{"outcome"},
	)

	llmLatency := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_completion_duration_seconds",
			Help:      "Model completion call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
	)

	promptTruncations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_truncations_total",
			Help:      "Total number of prompts built from a truncated graph",
		},
	)

	deltasApplied := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_applied_total",
			Help:      "Total number of deltas merged into a graph",
		},
	)

	nodesAdded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_added_total",
			Help:      "Total number of nodes added by merges",
		},
	)

	nodesUpdated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_updated_total",
			Help:      "Total number of nodes updated by merges",
		},
	)

	nodesRemoved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_removed_total",
			Help:      "Total number of nodes removed by merges",
		},
	)

	edgesAdded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_added_total",
			Help:      "Total number of edges added by merges",
		},
	)

	edgesRemoved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_removed_total",
			Help:      "Total number of edges removed by merges",
		},
	)

	edgesDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_dropped_total",
			Help:      "Total number of delta edges dropped instead of applied",
		},
		[]string{"reason"},
	)

	integrityWarnings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_warnings_total",
			Help:      "Total number of post-merge integrity scans that found drift",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		chatRequests,
		llmLatency,
		promptTruncations,
		deltasApplied,
		nodesAdded,
		nodesUpdated,
		nodesRemoved,
		edgesAdded,
		edgesRemoved,
		edgesDropped,
		integrityWarnings,
	)

	globalCollector = &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		ChatRequests:      chatRequests,
		LLMLatency:        llmLatency,
		PromptTruncations: promptTruncations,
		DeltasApplied:     deltasApplied,
		NodesAdded:        nodesAdded,
		NodesUpdated:      nodesUpdated,
		NodesRemoved:      nodesRemoved,
		EdgesAdded:        edgesAdded,
		EdgesRemoved:      edgesRemoved,
		EdgesDropped:      edgesDropped,
		IntegrityWarnings: integrityWarnings,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// GetRegistry returns the private registry for exposition handlers.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
