package replicator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient posts a join request to a leader's join endpoint. A thin
// stdlib stand-in for the gRPC client cuemby-warren's Manager.Join uses —
// mudforge has no gRPC service layer for a real RPC client to ride on,
// and a single JSON POST is all this handshake needs.
type httpClient struct {
	base string
}

func (c *httpClient) postJoin(body []byte) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(c.base+"/raft/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("leader returned %s: %s", resp.Status, string(msg))
	}
	return nil
}

// JoinHandler returns an http.HandlerFunc the leader exposes at
// /raft/join: it validates the bearer token and adds the requesting node
// as a Raft voter. Mounted by cmd/mudforge alongside the metrics
// endpoint; not started by Replicator itself so embedders can choose
// their own mux/port.
func (r *Replicator) JoinHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var jr JoinRequest
		if err := json.NewDecoder(req.Body).Decode(&jr); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if _, err := r.tokens.Validate(jr.Token); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		if err := r.AddVoter(jr.NodeID, jr.RaftAddr); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// IssueJoinToken mints a join token other nodes can use against
// JoinHandler; only meaningful when this node is leader.
func (r *Replicator) IssueJoinToken(ttl time.Duration) (string, error) {
	if !r.IsLeader() {
		return "", fmt.Errorf("only the leader issues join tokens")
	}
	return r.tokens.Generate(ttl)
}
