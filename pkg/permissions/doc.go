/*
Package permissions implements spec §4.8's role hierarchy (player <
builder < wizard < admin < owner) and its first-match-wins authorization
algorithm: wizard-or-above bypass, ownership, path-grant prefix match,
then a default allow for read/execute/move_non_fixed by plain players.

Path grants match on path-segment boundaries: "/a/b" authorizes "/a/b"
and everything under "/a/b/", never a sibling like "/a/bc".

# Usage

	chk := permissions.New("main", st)
	err := chk.Check(actor, permissions.Target{ID: obj.ID, Owner: obj.Owner}, permissions.ActionWrite)
	if err != nil {
		// *muderrs.PermissionDenied
	}

# See Also

  - pkg/hostapi, which calls Check before every mutating game.* call
*/
package permissions
