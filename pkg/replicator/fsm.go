package replicator

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/raft"

	"github.com/cuemby/mudforge/pkg/log"
	"github.com/cuemby/mudforge/pkg/mutation"
	"github.com/cuemby/mudforge/pkg/store"
	"github.com/cuemby/mudforge/pkg/types"
)

// FSM implements raft.FSM over pkg/store. Grounded directly on
// WarrenFSM (cuemby-warren/pkg/manager/fsm.go): the same
// lock-apply-one-log-entry-at-a-time shape, generalized from a fixed
// Command{Op, Data} switch to replaying an intent list. A node's FSM
// never opens a Sandbox — every mutation it applies was already computed
// and validated by whichever node was leader when the command ran.
type FSM struct {
	mu    sync.Mutex
	store *store.Store
}

// NewFSM creates an FSM over the given store.
func NewFSM(st *store.Store) *FSM {
	return &FSM{store: st}
}

// Apply decodes one committed LogEntry and replays its intents in order.
// Returns an error (never panics) so the caller can observe replay
// failures; by the time an entry commits, replay is expected to always
// succeed since the leader already performed the same writes locally.
func (f *FSM) Apply(l *raft.Log) interface{} {
	var entry LogEntry
	if err := json.Unmarshal(l.Data, &entry); err != nil {
		return fmt.Errorf("decode log entry: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.store.AppendRaftLogEntry(l.Index, l.Term, "command", l.Data, entry.NowMS); err != nil {
		log.WithComponent("replicator").Warn().Err(err).Msg("raft audit log append failed")
	}

	for _, rec := range entry.Intents {
		if err := f.applyIntent(entry.UniverseID, rec); err != nil {
			return err
		}
	}
	return nil
}

func (f *FSM) applyIntent(universe string, rec IntentRecord) error {
	switch rec.Kind {
	case mutation.KindCreate:
		var obj types.Object
		if err := json.Unmarshal(rec.Payload, &obj); err != nil {
			return err
		}
		return f.store.PutObject(&obj)

	case mutation.KindUpdate:
		var p struct {
			ID      string                 `json:"id"`
			Changes map[string]interface{} `json:"changes"`
		}
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		if p.Changes == nil {
			// Handler-invocation bookkeeping records carry no property
			// changes; nothing to replay against the store.
			return nil
		}
		obj, err := f.store.GetObject(universe, p.ID)
		if err != nil {
			return err
		}
		for k, v := range p.Changes {
			obj.Properties[k] = v
		}
		obj.UpdatedAt = time.Now()
		return f.store.PutObject(obj)

	case mutation.KindMove:
		var p struct {
			ID        string `json:"id"`
			NewParent string `json:"new_parent"`
		}
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		obj, err := f.store.GetObject(universe, p.ID)
		if err != nil {
			return err
		}
		obj.Parent = &p.NewParent
		obj.UpdatedAt = time.Now()
		return f.store.PutObject(obj)

	case mutation.KindDelete:
		var id string
		if err := json.Unmarshal(rec.Payload, &id); err != nil {
			return err
		}
		return f.store.DeleteObject(universe, id)

	case mutation.KindDefineClass:
		var p struct {
			Name     string                       `json:"name"`
			Parent   string                       `json:"parent"`
			Defaults map[string]types.PropertySpec `json:"defaults"`
			Handlers map[string]bool               `json:"handlers"`
			CodeHash string                       `json:"code_hash"`
		}
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		var parentPtr *string
		if p.Parent != "" {
			parentPtr = &p.Parent
		}
		var codeHashPtr *string
		if p.CodeHash != "" {
			codeHashPtr = &p.CodeHash
		}
		return f.store.PutClass(&types.ClassDef{
			Name:             p.Name,
			Universe:         universe,
			ParentName:       parentPtr,
			PropertyDefaults: p.Defaults,
			HandlerNames:     p.Handlers,
			CodeHash:         codeHashPtr,
			CreatedAt:        time.Now(),
		})

	case mutation.KindStoreCode:
		var p struct {
			Hash   string `json:"hash"`
			Source string `json:"source"`
		}
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return f.store.PutCode(p.Hash, p.Source)

	case mutation.KindSetTimer:
		var t types.Timer
		if err := json.Unmarshal(rec.Payload, &t); err != nil {
			return err
		}
		t.Universe = universe
		return f.store.PutTimer(&t)

	case mutation.KindCancelTimer:
		var id string
		if err := json.Unmarshal(rec.Payload, &id); err != nil {
			return err
		}
		return f.store.DeleteTimer(universe, id)

	case mutation.KindCreditDelta:
		var p struct {
			AccountID string `json:"account_id"`
			Amount    int64  `json:"amount"`
		}
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		_, err := f.store.AdjustBalance(universe, p.AccountID, p.Amount)
		return err

	case mutation.KindGrantPath:
		var g types.PathGrant
		if err := json.Unmarshal(rec.Payload, &g); err != nil {
			return err
		}
		g.Universe = universe
		return f.store.PutGrant(&g)

	case mutation.KindRevokeGrant:
		var id string
		if err := json.Unmarshal(rec.Payload, &id); err != nil {
			return err
		}
		return f.store.RevokeGrant(universe, id)

	case mutation.KindSetAccess:
		var p struct {
			AccountID string `json:"account_id"`
			Level     string `json:"level"`
		}
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return f.store.SetAccessLevel(p.AccountID, types.AccessLevel(p.Level))

	default:
		return fmt.Errorf("replicator: unknown intent kind %q", rec.Kind)
	}
}

// Snapshot collects the full KeyedStore image across every universe, for
// Raft log compaction. Grounded on WarrenSnapshot's shape in
// cuemby-warren/pkg/manager/fsm.go, generalized from Warren's fixed
// node/service/task lists to mudforge's domain tables.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	universes, err := f.store.AllUniverses()
	if err != nil {
		return nil, fmt.Errorf("list universes: %w", err)
	}
	code, err := f.store.AllCode()
	if err != nil {
		return nil, fmt.Errorf("list code: %w", err)
	}

	snap := &snapshot{Universes: universes, Code: code}
	for _, u := range universes {
		objs, err := f.store.AllObjects(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list objects for %s: %w", u.ID, err)
		}
		classes, err := f.store.AllClasses(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list classes for %s: %w", u.ID, err)
		}
		timers, err := f.store.AllTimers(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list timers for %s: %w", u.ID, err)
		}
		grants, err := f.store.AllGrants(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list grants for %s: %w", u.ID, err)
		}
		credits, err := f.store.AllCredits(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list credits for %s: %w", u.ID, err)
		}
		snap.Objects = append(snap.Objects, objs...)
		snap.Classes = append(snap.Classes, classes...)
		snap.Timers = append(snap.Timers, timers...)
		snap.Grants = append(snap.Grants, grants...)
		snap.Credits = append(snap.Credits, credits...)
	}
	return snap, nil
}

// Restore replaces the store's contents with a decoded snapshot. Called
// when a node falls far enough behind that the leader ships a snapshot
// instead of replaying the full log.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range snap.Universes {
		if err := f.store.PutUniverse(u); err != nil {
			return fmt.Errorf("restore universe %s: %w", u.ID, err)
		}
	}
	for _, c := range snap.Code {
		if err := f.store.PutCode(c.Hash, c.Source); err != nil {
			return fmt.Errorf("restore code %s: %w", c.Hash, err)
		}
	}
	for _, c := range snap.Classes {
		if err := f.store.PutClass(c); err != nil {
			return fmt.Errorf("restore class %s: %w", c.Name, err)
		}
	}
	for _, o := range snap.Objects {
		if err := f.store.PutObject(o); err != nil {
			return fmt.Errorf("restore object %s: %w", o.ID, err)
		}
	}
	for _, t := range snap.Timers {
		if err := f.store.PutTimer(t); err != nil {
			return fmt.Errorf("restore timer %s: %w", t.ID, err)
		}
	}
	for _, g := range snap.Grants {
		if err := f.store.PutGrant(g); err != nil {
			return fmt.Errorf("restore grant %s: %w", g.ID, err)
		}
	}
	for _, c := range snap.Credits {
		if _, err := f.store.AdjustBalance(c.Universe, c.PlayerID, c.Balance); err != nil {
			return fmt.Errorf("restore credit balance %s/%s: %w", c.Universe, c.PlayerID, err)
		}
	}
	return nil
}

// snapshot is the full KeyedStore image, JSON-encoded to the Raft
// SnapshotSink. Restore assumes an empty or identical store underneath
// (as hashicorp/raft guarantees for the node taking a snapshot install).
type snapshot struct {
	Universes []*types.Universe
	Code      []*types.CodeEntry
	Classes   []*types.ClassDef
	Objects   []*types.Object
	Timers    []*types.Timer
	Grants    []*types.PathGrant
	Credits   []*types.CreditBalance
}

// Persist writes the snapshot to sink, mirroring WarrenSnapshot.Persist.
func (s *snapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

// Release is a no-op; the snapshot holds no external resources.
func (s *snapshot) Release() {}
