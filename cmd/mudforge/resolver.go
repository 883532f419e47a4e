package main

import (
	"strings"

	"github.com/cuemby/mudforge/pkg/codestore"
	"github.com/cuemby/mudforge/pkg/hostapi"
	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/objectgraph"
)

// verbResolver is the default pkg/scheduler.CommandResolver: it treats a
// command's first whitespace-delimited token as the verb and looks it up
// in the per-player ActionTable installed by game.add_action. It is
// intentionally minimal — spec's command grammar is an out-of-scope
// transport concern a real deployment supplies; this is the reference
// implementation the bundled binary ships with.
type verbResolver struct {
	universe string
	graph    *objectgraph.Graph
	actions  *hostapi.ActionTable
	code     *codestore.CodeStore
}

func newVerbResolver(universe string, graph *objectgraph.Graph, actions *hostapi.ActionTable, code *codestore.CodeStore) *verbResolver {
	return &verbResolver{universe: universe, graph: graph, actions: actions, code: code}
}

// Resolve implements pkg/scheduler.CommandResolver.
func (r *verbResolver) Resolve(universe, actorID, text string) (source, objectID, verb string, err error) {
	verb, _, _ = strings.Cut(strings.TrimSpace(text), " ")
	if verb == "" {
		return "", "", "", &muderrs.NotFound{ID: "(empty command)"}
	}

	ref, ok := r.actions.Get(actorID, verb)
	if !ok {
		return "", "", "", &muderrs.NotFound{ID: verb}
	}

	obj, err := r.graph.Get(ref.ObjectID)
	if err != nil {
		return "", "", "", err
	}
	if obj.CodeHash == nil {
		return "", "", "", &muderrs.NotFound{ID: ref.ObjectID + "." + ref.Handler}
	}

	src, err := r.code.Get(*obj.CodeHash)
	if err != nil {
		return "", "", "", err
	}
	return src, ref.ObjectID, ref.Handler, nil
}
