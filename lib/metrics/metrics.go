package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "xabi"

	SubsystemClient  = "client"
	SubsystemServer  = "server"
	SubsystemHandler = "handler"
	SubsystemState   = "state"

	LabelMethod = "method"
	LabelStatus = "status"

	StatusSucc    = "succ"
	StatusFail    = "fail"
	StatusTimeout = "timeout"
)

// client
var (
	ClientCallCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemClient,
			Name:      "call_total",
			Help:      "Total number of abi calls issued by the engine.",
		},
		[]string{LabelMethod, LabelStatus})
	ClientCallHistogram = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemClient,
			Name:      "call_seconds",
			Help:      "Histogram of abi call latency.",
			Buckets:   prom.DefBuckets,
		},
		[]string{LabelMethod})
	ClientPendingGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemClient,
			Name:      "pending_requests",
			Help:      "Number of requests waiting for a response.",
		})
	ClientDroppedCounter = prom.NewCounter(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemClient,
			Name:      "dropped_response_total",
			Help:      "Total number of responses without a pending request.",
		})
)

// server
var (
	ServerHandledCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemServer,
			Name:      "handled_total",
			Help:      "Total number of abi requests handled.",
		},
		[]string{LabelMethod, LabelStatus})
	ServerHandledHistogram = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemServer,
			Name:      "handled_seconds",
			Help:      "Histogram of abi request handling latency.",
			Buckets:   prom.DefBuckets,
		},
		[]string{LabelMethod})
)

// handler and state
var (
	ExecutionContextGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemHandler,
			Name:      "execution_context_open",
			Help:      "1 if an execution context is open.",
		})
	StateHeightGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemState,
			Name:      "committed_height",
			Help:      "Height of the latest committed state.",
		})
)

var registerOnce sync.Once

// RegisterMetrics registers all collectors to the default registry, safe to call twice
func RegisterMetrics() {
	registerOnce.Do(func() {
		// client
		prom.MustRegister(ClientCallCounter)
		prom.MustRegister(ClientCallHistogram)
		prom.MustRegister(ClientPendingGauge)
		prom.MustRegister(ClientDroppedCounter)
		// server
		prom.MustRegister(ServerHandledCounter)
		prom.MustRegister(ServerHandledHistogram)
		// handler and state
		prom.MustRegister(ExecutionContextGauge)
		prom.MustRegister(StateHeightGauge)
	})
}
