package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Object Graph metrics
	ObjectsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mudforge_objects_total",
			Help: "Total number of objects by class",
		},
		[]string{"class"},
	)

	ClassesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudforge_classes_total",
			Help: "Total number of defined classes",
		},
	)

	CodeEntriesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudforge_code_entries_total",
			Help: "Total number of content-addressed code entries",
		},
	)

	CodeEntriesGCed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mudforge_code_entries_gced_total",
			Help: "Total number of zero-refcount code entries swept by GC",
		},
	)

	// Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudforge_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudforge_raft_peers_total",
			Help: "Total number of Raft peers in the cluster",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudforge_raft_applied_index",
			Help: "Last applied Raft log index",
		},
	)

	RaftCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mudforge_raft_commit_duration_seconds",
			Help:    "Time taken to commit a Raft log entry in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Scheduler metrics
	SchedulerQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mudforge_scheduler_queue_depth",
			Help: "Pending items per scheduler source",
		},
		[]string{"universe", "source"},
	)

	CommandsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudforge_commands_processed_total",
			Help: "Total commands processed by outcome",
		},
		[]string{"universe", "outcome"},
	)

	// Sandbox metrics
	SandboxExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudforge_sandbox_executions_total",
			Help: "Total sandbox executions by outcome",
		},
		[]string{"outcome"},
	)

	SandboxAborts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudforge_sandbox_aborts_total",
			Help: "Total sandbox aborts by resource kind",
		},
		[]string{"kind"},
	)

	SandboxExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mudforge_sandbox_execution_duration_seconds",
			Help:    "Wall-clock time spent inside a sandbox execution",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1},
		},
	)

	// Economy metrics
	CreditsDebited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mudforge_credits_debited_total",
			Help: "Total credits debited across all players",
		},
	)

	CreditsGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mudforge_credits_granted_total",
			Help: "Total credits granted across all players",
		},
	)

	// Oracle metrics
	OracleCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudforge_oracle_calls_total",
			Help: "Total ContentOracle calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(ObjectsTotal)
	prometheus.MustRegister(ClassesTotal)
	prometheus.MustRegister(CodeEntriesTotal)
	prometheus.MustRegister(CodeEntriesGCed)
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftPeers)
	prometheus.MustRegister(RaftAppliedIndex)
	prometheus.MustRegister(RaftCommitDuration)
	prometheus.MustRegister(SchedulerQueueDepth)
	prometheus.MustRegister(CommandsProcessed)
	prometheus.MustRegister(SandboxExecutions)
	prometheus.MustRegister(SandboxAborts)
	prometheus.MustRegister(SandboxExecutionDuration)
	prometheus.MustRegister(CreditsDebited)
	prometheus.MustRegister(CreditsGranted)
	prometheus.MustRegister(OracleCallsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
