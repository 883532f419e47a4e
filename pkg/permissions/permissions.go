// Package permissions implements the role hierarchy and path-grant
// matching algorithm from spec §4.8.
package permissions

import (
	"strings"

	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/types"
)

// Action enumerates the operations the first-match-wins algorithm
// discriminates on.
type Action string

const (
	ActionRead          Action = "read"
	ActionExecute       Action = "execute"
	ActionMoveNonFixed  Action = "move_non_fixed"
	ActionWrite         Action = "write"
	ActionDelete        Action = "delete"
	ActionMoveFixed     Action = "move_fixed"
)

// Target is the subset of an object's fields the permission algorithm
// needs.
type Target struct {
	ID    string
	Owner *string
	Fixed bool
}

// GrantSource looks up an account's path grants.
type GrantSource interface {
	GrantsFor(universe, granteeID string) ([]*types.PathGrant, error)
}

// Checker evaluates permission for one universe.
type Checker struct {
	universe string
	grants   GrantSource
}

// New creates a Checker over the given grant source.
func New(universe string, grants GrantSource) *Checker {
	return &Checker{universe: universe, grants: grants}
}

// Check runs the first-match-wins algorithm and returns nil if allowed,
// or a *muderrs.PermissionDenied with a reason otherwise.
func (c *Checker) Check(actor *types.Account, target Target, action Action) error {
	if action == ActionMoveFixed && target.Fixed {
		if actor.AccessLevel.AtLeast(types.AccessWizard) {
			return nil
		}
		if owns(actor, target) {
			return nil
		}
		return &muderrs.PermissionDenied{Reason: "fixed object requires wizard bypass or owning grant"}
	}

	if actor.AccessLevel.AtLeast(types.AccessWizard) {
		return nil
	}
	if owns(actor, target) {
		return nil
	}
	if c.hasMatchingGrant(actor.ID, target.ID) {
		return nil
	}
	if action == ActionRead || action == ActionExecute || action == ActionMoveNonFixed {
		return nil
	}
	return &muderrs.PermissionDenied{Reason: "no access level, ownership, or path grant permits this action"}
}

func owns(actor *types.Account, target Target) bool {
	return target.Owner != nil && *target.Owner == actor.ID
}

func (c *Checker) hasMatchingGrant(actorID, targetID string) bool {
	grants, err := c.grants.GrantsFor(c.universe, actorID)
	if err != nil {
		return false
	}
	for _, g := range grants {
		if pathPrefixMatch(g.PathPrefix, targetID) {
			return true
		}
	}
	return false
}

// pathPrefixMatch implements spec §4.8's segment-boundary prefix rule:
// "/a/b" matches "/a/b" and "/a/b/anything", never "/a/bc".
func pathPrefixMatch(prefix, id string) bool {
	if prefix == id {
		return true
	}
	return strings.HasPrefix(id, prefix+"/")
}
