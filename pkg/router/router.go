// Package router delivers the message batches scripts stage during a
// command execution. Messages are never sent while a script runs — they
// sit in the execution's MutationCollector until the command commits, then
// the Router fans them out to whichever sinks are currently registered.
package router

import (
	"sync"
)

// Kind selects how a Message is addressed.
type Kind string

const (
	// KindDirect delivers to exactly one actor.
	KindDirect Kind = "direct"
	// KindRoom delivers to every actor present in a room, the sender
	// included.
	KindRoom Kind = "room"
	// KindRoomExcept delivers to every actor present in a room except one.
	KindRoomExcept Kind = "room_except"
	// KindRegion delivers to every actor present anywhere within a region.
	KindRegion Kind = "region"
)

// Message is one staged line of output.
type Message struct {
	Kind      Kind
	TargetID  string // actor id (direct), room/region id (room/region)
	ExceptID  string // actor id to skip (room_except)
	Text      string
}

// Batch is the ordered set of messages one command execution staged,
// queued on the MutationCollector and handed to the Router only after the
// owning command commits.
type Batch struct {
	Universe string
	Messages []Message
}

// Sink receives delivered text for one actor. SessionGateway implementations
// adapt a live connection to this interface.
type Sink interface {
	Deliver(actorID, text string)
}

// PresenceSource answers "who is present where" so the Router can expand
// room and region addressing without itself owning the object graph.
type PresenceSource interface {
	ActorsInRoom(universe, roomID string) []string
	ActorsInRegion(universe, regionID string) []string
}

// Router fans out committed message batches to registered sinks.
type Router struct {
	mu       sync.RWMutex
	sinks    map[string]Sink // actor id -> sink
	presence PresenceSource
}

// New creates a Router backed by the given presence source.
func New(presence PresenceSource) *Router {
	return &Router{
		sinks:    make(map[string]Sink),
		presence: presence,
	}
}

// Register attaches a sink for an actor. Replaces any previous sink for
// the same actor (reconnect).
func (r *Router) Register(actorID string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[actorID] = sink
}

// Unregister detaches an actor's sink, e.g. on disconnect.
func (r *Router) Unregister(actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, actorID)
}

// Connected reports whether an actor currently has a registered sink.
func (r *Router) Connected(actorID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sinks[actorID]
	return ok
}

// Flush delivers every message in a committed batch. Called by the
// scheduler immediately after a command's mutations are applied; never
// called for an aborted or rolled-back execution.
func (r *Router) Flush(batch Batch) {
	for _, msg := range batch.Messages {
		r.deliver(batch.Universe, msg)
	}
}

func (r *Router) deliver(universe string, msg Message) {
	switch msg.Kind {
	case KindDirect:
		r.send(msg.TargetID, msg.Text)
	case KindRoom:
		for _, actorID := range r.presence.ActorsInRoom(universe, msg.TargetID) {
			r.send(actorID, msg.Text)
		}
	case KindRoomExcept:
		for _, actorID := range r.presence.ActorsInRoom(universe, msg.TargetID) {
			if actorID == msg.ExceptID {
				continue
			}
			r.send(actorID, msg.Text)
		}
	case KindRegion:
		for _, actorID := range r.presence.ActorsInRegion(universe, msg.TargetID) {
			r.send(actorID, msg.Text)
		}
	}
}

func (r *Router) send(actorID, text string) {
	r.mu.RLock()
	sink, ok := r.sinks[actorID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	sink.Deliver(actorID, text)
}

// ConnectedCount returns the number of actors with a live sink.
func (r *Router) ConnectedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
