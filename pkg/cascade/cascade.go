// Package cascade implements the init() cascade triggered by every
// successful move_object, per spec §4.6. The cascade runs inside the
// same sandbox execution as the triggering call — it does not open a new
// one — so its handler calls are dispatched through the Invoker the
// caller already has metering attached to.
package cascade

import (
	"sort"

	"github.com/cuemby/mudforge/pkg/classes"
	"github.com/cuemby/mudforge/pkg/objectgraph"
)

// Invoker calls one handler on one object if the object's class chain
// advertises it; a missing handler is a silent no-op, not an error.
type Invoker interface {
	Invoke(objectID, handler string, args ...any) error
}

// Cascade drives the on_init/on_enter/on_move ordering for one universe.
type Cascade struct {
	graph   *objectgraph.Graph
	classes *classes.Registry
}

// New creates a Cascade over the given graph and class registry.
func New(graph *objectgraph.Graph, reg *classes.Registry) *Cascade {
	return &Cascade{graph: graph, classes: reg}
}

// Run executes the cascade for a mover M that just moved from source
// (nil if none, i.e. creation at top level) to dest.
func (c *Cascade) Run(inv Invoker, moverID string, source, dest *string) error {
	if source != nil {
		if err := c.fireIfHandled(inv, moverID, "on_move", *source, destOrNil(dest)); err != nil {
			return err
		}
	}
	if dest == nil {
		return nil
	}

	if err := c.fireIfHandled(inv, *dest, "on_enter", moverID); err != nil {
		return err
	}

	siblings, err := c.graph.Children(*dest, "")
	if err != nil {
		return err
	}
	var ids []string
	for _, s := range siblings {
		if s.ID != moverID {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)

	for _, siblingID := range ids {
		if err := c.fireIfHandled(inv, siblingID, "on_init", moverID); err != nil {
			return err
		}
		if err := c.fireIfHandled(inv, moverID, "on_init", siblingID); err != nil {
			return err
		}
	}

	return c.fireIfHandled(inv, moverID, "on_init", *dest)
}

func destOrNil(dest *string) any {
	if dest == nil {
		return nil
	}
	return *dest
}

func (c *Cascade) fireIfHandled(inv Invoker, objectID, handler string, args ...any) error {
	obj, err := c.graph.Get(objectID)
	if err != nil {
		return nil // deleted mid-cascade: drop silently
	}
	handlers, err := c.classes.HandlerChain(obj.Class)
	if err != nil {
		return nil
	}
	for _, h := range handlers {
		if h == handler {
			return inv.Invoke(objectID, handler, args...)
		}
	}
	return nil
}
