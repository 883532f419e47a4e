/*
Package types defines the core data structures used throughout mudforge.

This package contains all fundamental types that represent the engine's
domain model: objects, classes, code entries, timers, heart-beats, accounts,
universes, path grants, and credit balances. These types are used by every
other package for state management, mutation replication, and sandbox
execution.

# Architecture

The types package is the foundation of mudforge's data model. It defines:

  - The containment graph (Object, path-based IDs, parent links)
  - Class definitions and the built-in inheritance chain (ClassDef)
  - Content-addressed script storage (CodeEntry)
  - Scheduling primitives (Timer, HeartBeat)
  - Accounts, universes, and permission grants
  - Credit ledger balances

All types are designed to be:
  - Serializable (JSON, for Raft log entries and snapshots)
  - Universe-scoped where the data belongs to one world (objects, classes,
    timers, grants, credits); accounts and code entries are process-wide
  - Self-documenting (clear field names and comments)

# Core Types

Object Graph:
  - Object: a persistent entity with a path ID, class, parent, and properties

Class Registry:
  - ClassDef: a class definition (parent, property defaults, handler names)
  - PropertySpec: the declared type/default for one class property

Scripting:
  - CodeEntry: a content-addressed source blob with a reference count

Scheduling:
  - Timer: a persisted one-shot call-out
  - HeartBeat: an in-memory periodic registration

Accounts & Permissions:
  - Account: a player/operator account and its access level
  - Universe: a world partition
  - PathGrant: a delegated permission over a path prefix

Economy:
  - CreditBalance: a player's credit balance within a universe

# Usage

Creating an Object:

	obj := &types.Object{
		ID:        "/rooms/a",
		Universe:  "main",
		Class:     "room",
		Parent:    nil,
		Name:      "Room A",
		Properties: map[string]any{"description": "A plain stone room."},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

Defining a class:

	def := &types.ClassDef{
		Name:       "fire_sword",
		ParentName: ptr("weapon"),
		PropertyDefaults: map[string]types.PropertySpec{
			"damage_dice": {Type: "string", Default: "1d8"},
		},
		HandlerNames: map[string]bool{"on_init": true},
	}

# Thread Safety

All types in this package are plain data holders with no internal
synchronization. Mutation must be synchronized by callers — in mudforge
that discipline lives in pkg/objectgraph, pkg/classes, and pkg/store, which
serialize writes through the single-writer scheduler loop per universe.

# See Also

  - pkg/store for persistence
  - pkg/objectgraph and pkg/classes for the mutation API over these types
  - pkg/replicator for how these types cross the Raft log
  - SPEC_FULL.md for the full data-model rationale
*/
package types
