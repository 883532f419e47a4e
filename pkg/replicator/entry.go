package replicator

import (
	"encoding/json"

	"github.com/cuemby/mudforge/pkg/mutation"
)

// LogEntry is the unit replicated through Raft: everything a follower
// needs to reproduce one committed command's effects on its own store,
// without ever running the script that produced them. Generalizes
// WarrenFSM's fixed Command{Op, Data} into a generic intent list, per
// spec §4.10/§6.3.
type LogEntry struct {
	UniverseID  string          `json:"universe_id"`
	CommandSeq  int64           `json:"command_seq"`
	ActorID     string          `json:"actor_id"`
	Text        string          `json:"text"`
	NowMS       int64           `json:"now_ms"`
	RNGSeed     int64           `json:"rng_seed"`
	Intents     []IntentRecord  `json:"intents"`
	MessageSummary string       `json:"message_batch_summary"`
}

// IntentRecord is one mutation.Intent flattened to a wire form: the kind
// tag plus its payload re-marshaled to raw JSON, so Apply can decode each
// payload into the concrete type that kind implies instead of a bare
// map[string]interface{}.
type IntentRecord struct {
	Kind    mutation.Kind   `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// encodeIntents flattens a Collector's staged intents into wire form.
func encodeIntents(intents []mutation.Intent) ([]IntentRecord, error) {
	out := make([]IntentRecord, 0, len(intents))
	for _, in := range intents {
		raw, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, IntentRecord{Kind: in.Kind, Payload: raw})
	}
	return out, nil
}
