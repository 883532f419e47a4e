/*
Package scheduler is the Event & Timer Scheduler (spec §4.7): the
single-writer execution loop that owns a universe's command queue,
timer min-heap, and heart-beat wheel, and is the only thing allowed to
open a Sandbox execution on the leader.

Each Scheduler instance serializes state-mutating executions for
exactly one universe; different universes run on independent
Schedulers and MAY execute in parallel. At each step the loop picks the
single highest-priority ready item — an admitted command, else a due
timer, else a due heart-beat, in that order — runs it to completion in
a fresh Sandbox, and on success commits its staged mutations through a
Committer (implemented by pkg/replicator) before flushing its staged
messages through the Router. Any execution error discards everything
it staged; nothing partial is ever committed or delivered.

Scheduler also implements hostapi.TimerSink, so call_out/remove_call_out/
find_call_out/set_heart_beat reach directly into its timer heap and
heart-beat wheel from inside a running script.

# See Also

  - pkg/sandbox, which metering this loop leans on for abort semantics
  - pkg/hostapi, whose API.LastCollector hands back what to commit/flush
  - pkg/replicator, the Committer this loop proposes through
*/
package scheduler
