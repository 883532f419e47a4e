/*
Package objectgraph implements the Object Graph: create, get, update,
move, delete, and containment queries over path-based object IDs.

Every mutation enforces path shape, same-universe parent existence,
class-registry membership, and acyclic containment. Update additionally
checks each changed key against the class chain's declared property type,
an mudforge-specific strengthening of validation the scripting layer
relies on to fail fast instead of storing a silently-wrong value.

# Usage

	g := objectgraph.New("main", st, reg)
	room, err := g.Create("/room/square", "room", nil, nil)
	sword, err := g.Create("/obj/sword1", "weapon", &room.ID, map[string]any{"damage": 6})
	err = g.Move(sword.ID, "/obj/bag1")

# See Also

  - pkg/classes for class resolution and property defaults
  - pkg/mutation, which stages these calls during a script execution
*/
package objectgraph
