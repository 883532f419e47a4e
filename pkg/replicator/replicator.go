// Package replicator is the Consensus Layer (spec §4.11): it wraps
// hashicorp/raft so that every universe's committed commands are
// replicated to a quorum before their mutations are visible cluster-wide.
// Grounded directly on cuemby-warren/pkg/manager/manager.go's
// Bootstrap/Join/AddVoter/IsLeader/Apply pattern, stripped of everything
// that pattern carries for container orchestration (DNS, a CA, ingress,
// ACME) that has no counterpart in mudforge's domain.
package replicator

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/rs/zerolog"

	"github.com/cuemby/mudforge/pkg/log"
	"github.com/cuemby/mudforge/pkg/metrics"
	"github.com/cuemby/mudforge/pkg/mutation"
	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/router"
	"github.com/cuemby/mudforge/pkg/store"
)

// Config configures a Replicator's local Raft node.
type Config struct {
	NodeID   string
	BindAddr string // Raft transport address, host:port
	DataDir  string // holds raft-log.db, raft-stable.db, snapshots
}

// Replicator wraps one node's Raft instance over an FSM backed by
// pkg/store. Implements pkg/scheduler.Committer and
// pkg/metrics.RaftStatusSource.
type Replicator struct {
	cfg    Config
	raft   *raft.Raft
	fsm    *FSM
	tokens *TokenManager
	logger zerolog.Logger
}

// New creates a Replicator; call Bootstrap or Join before Commit.
func New(cfg Config, st *store.Store) (*Replicator, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Replicator{
		cfg:    cfg,
		fsm:    NewFSM(st),
		tokens: NewTokenManager(),
		logger: log.WithComponent("replicator"),
	}, nil
}

func (r *Replicator) newRaft() (*raft.Raft, *raft.NetworkTransport, error) {
	conf := raft.DefaultConfig()
	conf.LocalID = raft.ServerID(r.cfg.NodeID)

	// Tuned for sub-10s failover on a LAN-scale deployment, same
	// reasoning as the teacher's Bootstrap: hashicorp/raft's WAN-safe
	// defaults (1s heartbeat/election) are unnecessarily conservative
	// here.
	conf.HeartbeatTimeout = 500 * time.Millisecond
	conf.ElectionTimeout = 500 * time.Millisecond
	conf.CommitTimeout = 50 * time.Millisecond
	conf.LeaderLeaseTimeout = 250 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", r.cfg.BindAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(r.cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("create transport: %w", err)
	}
	snapshotStore, err := raft.NewFileSnapshotStore(r.cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("create snapshot store: %w", err)
	}
	logStore, err := raftboltdb.NewBoltStore(filepath.Join(r.cfg.DataDir, "raft-log.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(r.cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("create stable store: %w", err)
	}
	rft, err := raft.NewRaft(conf, r.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, nil, fmt.Errorf("create raft: %w", err)
	}
	return rft, transport, nil
}

// Bootstrap starts a brand-new single-node cluster with this node as its
// only voter.
func (r *Replicator) Bootstrap() error {
	rft, transport, err := r.newRaft()
	if err != nil {
		return err
	}
	r.raft = rft

	future := rft.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: raft.ServerID(r.cfg.NodeID), Address: transport.LocalAddr()}},
	})
	if err := future.Error(); err != nil {
		return fmt.Errorf("bootstrap cluster: %w", err)
	}
	r.logger.Info().Str("node_id", r.cfg.NodeID).Msg("bootstrapped single-node raft cluster")
	return nil
}

// Attach opens this node's existing Raft log/stable/snapshot stores —
// left behind by a prior Bootstrap or Join — without creating a new
// cluster or sending a join request. hashicorp/raft recovers its
// configuration, term, and log position from those stores automatically,
// which is what lets "mudforge serve" reattach to a node that was
// bootstrapped or joined in a separate earlier invocation.
func (r *Replicator) Attach() error {
	rft, _, err := r.newRaft()
	if err != nil {
		return err
	}
	r.raft = rft
	r.logger.Info().Str("node_id", r.cfg.NodeID).Msg("attached to existing raft state")
	return nil
}

// JoinRequest is the body a joining node POSTs to an existing leader's
// join endpoint.
type JoinRequest struct {
	NodeID   string `json:"node_id"`
	RaftAddr string `json:"raft_addr"`
	Token    string `json:"token"`
}

// Join starts this node's Raft instance without bootstrapping a new
// cluster, then asks leaderJoinAddr (an http://host:port base URL) to add
// it as a voter. Generalizes Warren's gRPC JoinCluster RPC to a single
// stdlib net/http POST, since mudforge carries no RPC framework — there
// is no worker/service control plane here for gRPC to serve.
func (r *Replicator) Join(leaderJoinAddr, token string) error {
	rft, _, err := r.newRaft()
	if err != nil {
		return err
	}
	r.raft = rft

	body, err := json.Marshal(JoinRequest{NodeID: r.cfg.NodeID, RaftAddr: r.cfg.BindAddr, Token: token})
	if err != nil {
		return err
	}
	client := &httpClient{base: leaderJoinAddr}
	if err := client.postJoin(body); err != nil {
		return fmt.Errorf("join via %s: %w", leaderJoinAddr, err)
	}
	r.logger.Info().Str("node_id", r.cfg.NodeID).Str("leader", leaderJoinAddr).Msg("joined raft cluster")
	return nil
}

// AddVoter adds a joining node to the cluster's Raft configuration;
// callers only ever accept this from join requests the leader itself
// receives (see cmd/mudforge's join HTTP handler).
func (r *Replicator) AddVoter(nodeID, raftAddr string) error {
	if r.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !r.IsLeader() {
		return &muderrs.NotLeader{Hint: r.LeaderAddr()}
	}
	future := r.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(raftAddr), 0, 10*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("add voter: %w", err)
	}
	return nil
}

// RemoveServer evicts a node from the cluster's Raft configuration.
func (r *Replicator) RemoveServer(nodeID string) error {
	if r.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !r.IsLeader() {
		return &muderrs.NotLeader{Hint: r.LeaderAddr()}
	}
	future := r.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second)
	return future.Error()
}

// GetClusterServers lists the cluster's current Raft configuration.
func (r *Replicator) GetClusterServers() ([]raft.Server, error) {
	if r.raft == nil {
		return nil, fmt.Errorf("raft not initialized")
	}
	future := r.raft.GetConfiguration()
	if err := future.Error(); err != nil {
		return nil, err
	}
	return future.Configuration().Servers, nil
}

// IsLeader reports whether this node currently holds Raft leadership.
func (r *Replicator) IsLeader() bool {
	return r.raft != nil && r.raft.State() == raft.Leader
}

// LeaderAddr returns the current leader's Raft transport address, or ""
// if unknown.
func (r *Replicator) LeaderAddr() string {
	if r.raft == nil {
		return ""
	}
	addr, _ := r.raft.LeaderWithID()
	return string(addr)
}

// PeerCount and AppliedIndex satisfy pkg/metrics.RaftStatusSource.
func (r *Replicator) PeerCount() int {
	servers, err := r.GetClusterServers()
	if err != nil {
		return 0
	}
	return len(servers)
}

// AppliedIndex returns the last Raft log index this node has applied.
func (r *Replicator) AppliedIndex() uint64 {
	if r.raft == nil {
		return 0
	}
	return r.raft.AppliedIndex()
}

// GetRaftStats reports a snapshot of Raft state, for the admin/diagnostic
// surface.
func (r *Replicator) GetRaftStats() map[string]interface{} {
	if r.raft == nil {
		return nil
	}
	return map[string]interface{}{
		"state":          r.raft.State().String(),
		"last_log_index": r.raft.LastIndex(),
		"applied_index":  r.raft.AppliedIndex(),
		"leader":         r.LeaderAddr(),
		"peers":          r.PeerCount(),
	}
}

// Commit implements pkg/scheduler.Committer: it packages one command's
// staged intents and message-batch summary into a LogEntry and proposes
// it through Raft, returning only once a quorum has durably replicated
// it. Grounded on Manager.Apply's marshal → raft.Apply → future.Error
// pattern, generalized from a fixed Command{Op,Data} to the intent-list
// LogEntry.
func (r *Replicator) Commit(universe, actorID, text string, seq, nowMS, rngSeed int64, intents []mutation.Intent, messages router.Batch) error {
	if r.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !r.IsLeader() {
		return &muderrs.NotLeader{Hint: r.LeaderAddr()}
	}

	records, err := encodeIntents(intents)
	if err != nil {
		return fmt.Errorf("encode intents: %w", err)
	}
	entry := LogEntry{
		UniverseID:     universe,
		CommandSeq:     seq,
		ActorID:        actorID,
		Text:           text,
		NowMS:          nowMS,
		RNGSeed:        rngSeed,
		Intents:        records,
		MessageSummary: fmt.Sprintf("%d message(s)", len(messages.Messages)),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RaftCommitDuration)

	future := r.raft.Apply(data, 5*time.Second)
	if err := future.Error(); err != nil {
		if err == raft.ErrLeadershipLost || err == raft.ErrNotLeader {
			return &muderrs.NotLeader{Hint: r.LeaderAddr()}
		}
		return &muderrs.ReplicationTimeout{}
	}
	if resp := future.Response(); resp != nil {
		if applyErr, ok := resp.(error); ok && applyErr != nil {
			return applyErr
		}
	}
	return nil
}

// Shutdown stops this node's Raft instance.
func (r *Replicator) Shutdown() error {
	if r.raft == nil {
		return nil
	}
	return r.raft.Shutdown().Error()
}
