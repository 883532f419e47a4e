/*
Package replicator is the Consensus Layer (spec §4.11): the only thing
in mudforge allowed to make a command's mutations durable and visible
cluster-wide. One Replicator per node wraps a single hashicorp/raft
instance; FSM.Apply replays a committed LogEntry's intents against
pkg/store without ever opening a Sandbox — scripts run once, on
whichever node is leader when the command is scheduled, and every other
node only ever replays the result.

Grounded on cuemby-warren/pkg/manager/fsm.go (WarrenFSM's
Apply/Snapshot/Restore) and manager.go (Bootstrap/Join/AddVoter/
RemoveServer/GetClusterServers/IsLeader/Apply), generalized from Warren's
fixed Command{Op, Data} switch over node/service/task/secret/volume/
network lists to a single intent-list LogEntry replayed over mudforge's
object/class/code/timer/credit/grant tables. The DNS server, certificate
authority, ingress proxy, and ACME client that pkg/manager.Manager also
owns have no counterpart here and are not carried forward — see
DESIGN.md's dropped-teacher-packages section.

Join() replaces Warren's gRPC JoinCluster RPC with a single stdlib
net/http POST against the leader's JoinHandler, since mudforge has no
worker/service control plane for a gRPC client to ride alongside.

# See Also

  - pkg/scheduler, whose Committer interface this type implements
  - pkg/mutation, whose Collector output becomes a LogEntry's intents
  - pkg/store, the domain tables FSM.Apply and Snapshot/Restore operate on
  - pkg/metrics, whose RaftStatusSource this type also implements
*/
package replicator
