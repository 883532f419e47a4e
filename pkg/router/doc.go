/*
Package router delivers message batches staged by committed script
executions to connected session sinks.

Nothing is sent while a script is running: game.send, game.broadcast,
game.broadcast_except and game.broadcast_region calls append Message
values to the current execution's mutation batch.
Only once the owning command commits does the scheduler hand the batch to
Router.Flush, which expands room/region addressing via a PresenceSource
and writes to whatever Sink is currently registered for each actor.
Disconnected actors silently miss messages; there is no backlog or replay.

# Usage

	r := router.New(objectgraph)
	r.Register(actorID, sessionSink)
	defer r.Unregister(actorID)

	r.Flush(router.Batch{
		Universe: "main",
		Messages: []router.Message{
			{Kind: router.KindDirect, TargetID: actorID, Text: "You swing the sword."},
			{Kind: router.KindRoomExcept, TargetID: roomID, ExceptID: actorID, Text: "Aria swings a sword."},
		},
	})

# See Also

  - pkg/mutation for how batches accumulate during an execution
  - pkg/gateway for the SessionGateway collaborator that owns real sinks
*/
package router
