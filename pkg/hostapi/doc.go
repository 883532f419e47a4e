/*
Package hostapi implements the Host API: the game object bound into
every sandboxed script execution, covering object/class operations,
environment queries, contextual actions, messaging, timers, the
ContentOracle, credits, permissions, RNG/time, and code storage named
in spec §4.5.

API holds the shared, per-universe collaborators (objectgraph.Graph,
classes.Registry, codestore.CodeStore, permissions.Checker,
oracle.Limiter, credits.Ledger, cascade.Cascade, a TimerSink into the
scheduler's timer heap). Bind creates one execution per script run,
scoping a mutation.Collector, a freshly seeded rng.Source, and a small
read-your-writes overlay so a script's own create/update calls are
visible to its own later get_object calls before the command commits.

Write operations never touch the store directly beyond what's needed
to validate and resolve the call (itself charged against the
execution's store-query budget); every successful write also stages an
Intent on the collector, which is what the Replicator actually commits
and what a replay on another node re-derives from.

# See Also

  - pkg/sandbox, which binds an API via HostBinder and meters execution
  - pkg/mutation, the intent/message staging area this package writes to
  - pkg/cascade, invoked here on every successful move_object/create
*/
package hostapi
