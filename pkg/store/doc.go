/*
Package store implements the KeyedStore: SQLite-backed persistence for
accounts, universes, objects, classes, code entries, credits, timers, and
path grants, per the normative schema.

WAL journaling and foreign keys are enabled on open so concurrent readers
(the metrics collector, admin tooling) never block the single scheduler
writer. Raft's log and vote state is not stored here — see pkg/replicator,
which uses raft-boltdb for that.

# Usage

	st, err := store.Open("mudforge.db")
	if err != nil { ... }
	defer st.Close()

	obj, err := st.GetObject("main", "/room/square")

# See Also

  - pkg/objectgraph and pkg/classes, the in-process layers built on this store
  - pkg/replicator, whose FSM.Apply replays committed intents against this
    store one Store call at a time (not inside one shared transaction)
*/
package store
