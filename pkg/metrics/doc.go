/*
Package metrics provides Prometheus metrics collection and exposition for
mudforge.

Metrics are registered at package init and exposed over HTTP for scraping.
Categories: object graph (ObjectsTotal, ClassesTotal, CodeEntriesTotal,
CodeEntriesGCed), consensus (RaftLeader, RaftPeers, RaftAppliedIndex,
RaftCommitDuration), scheduling (SchedulerQueueDepth, CommandsProcessed),
sandbox (SandboxExecutions, SandboxAborts, SandboxExecutionDuration), and
economy (CreditsDebited, CreditsGranted, OracleCallsTotal).

# Usage

	metrics.CommandsProcessed.WithLabelValues("main", "ok").Inc()

	timer := metrics.NewTimer()
	result, err := vm.Run(script)
	timer.ObserveDuration(metrics.SandboxExecutionDuration)

	http.Handle("/metrics", metrics.Handler())

Collector periodically republishes state from the consensus layer and the
keyed store as gauges:

	c := metrics.NewCollector(replicator, store)
	c.Start()
	defer c.Stop()

# See Also

  - pkg/log for the structured-logging counterpart to these metrics
  - https://prometheus.io/docs/practices/histograms/
*/
package metrics
