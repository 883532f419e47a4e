/*
Package mutation implements the Mutation Collector described in spec
§4.10: an ordered, per-execution staging area sitting between the Host
API and both the Object Graph's store writes and the Message Router's
outbound batches.

A fresh Collector is created per script execution. Every game.* call that
writes state or sends a message appends to it instead of touching the
store or router directly. If the execution completes without error, the
scheduler replays the staged intents through pkg/replicator as one Raft
log entry, and on commit hands the staged messages to pkg/router.Flush.
If the execution errors for any reason, Abort discards everything staged
— no partial writes, no partial message delivery.

# See Also

  - pkg/sandbox and pkg/hostapi, which populate a Collector during a run
  - pkg/replicator, which replays Intents inside FSM.Apply
*/
package mutation
