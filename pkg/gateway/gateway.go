// Package gateway defines the SessionGateway collaborator contract: the
// out-of-scope transport layer (telnet/websocket/whatever) that owns
// real connections and adapts them to pkg/router.Sink.
package gateway

import "context"

// Command is one line of input framed from a session, per spec §6.1.
type Command struct {
	SessionID string
	ActorID   string
	Universe  string
	Text      string
}

// SessionGateway accepts framed commands from connected sessions and
// hands them to the core for scheduling. mudforge implements only this
// interface and a trivial in-process reference below; a real deployment
// supplies its own transport.
type SessionGateway interface {
	// Commands returns a channel of framed input; closed when the
	// gateway shuts down.
	Commands() <-chan Command
	// Disconnect forcibly drops a session, e.g. after a kick.
	Disconnect(sessionID string) error
}

// Sink adapts one live connection to pkg/router.Sink.
type Sink interface {
	Deliver(actorID, text string)
}

// InProcess is a minimal SessionGateway for embedding mudforge in a
// single process (tests, a local CLI client) without a network
// transport.
type InProcess struct {
	cmds chan Command
}

// NewInProcess creates an InProcess gateway with a buffered command
// channel.
func NewInProcess(buffer int) *InProcess {
	return &InProcess{cmds: make(chan Command, buffer)}
}

// Submit enqueues a command as if it arrived over a real transport.
func (g *InProcess) Submit(ctx context.Context, cmd Command) error {
	select {
	case g.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Commands implements SessionGateway.
func (g *InProcess) Commands() <-chan Command { return g.cmds }

// Disconnect implements SessionGateway; a no-op for the in-process
// gateway since there is no real connection to tear down.
func (g *InProcess) Disconnect(sessionID string) error { return nil }

// Close shuts down the command channel.
func (g *InProcess) Close() { close(g.cmds) }
