// Package objectgraph implements the Object Graph: create/get/update/move/
// delete and containment queries over path-based object IDs, per spec §4.1.
package objectgraph

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cuemby/mudforge/pkg/classes"
	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/store"
	"github.com/cuemby/mudforge/pkg/types"
)

var pathSegmentRE = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Graph is the per-universe Object Graph.
type Graph struct {
	universe string
	store    *store.Store
	classes  *classes.Registry
}

// New creates a Graph for one universe.
func New(universe string, st *store.Store, reg *classes.Registry) *Graph {
	return &Graph{universe: universe, store: st, classes: reg}
}

// validPath enforces the ID grammar: /segment/segment/…, each segment
// matching [a-z][a-z0-9-]*, with total length 3-256.
func validPath(id string) bool {
	if len(id) < 3 || len(id) > 256 || !strings.HasPrefix(id, "/") {
		return false
	}
	for _, seg := range strings.Split(id[1:], "/") {
		if !pathSegmentRE.MatchString(seg) {
			return false
		}
	}
	return true
}

// Create makes a new object. overrides are layered on top of the class's
// resolved property defaults.
func (g *Graph) Create(id, class string, parent *string, overrides map[string]any) (*types.Object, error) {
	if !validPath(id) {
		return nil, &muderrs.PathInvalid{Path: id}
	}
	if existing, _ := g.store.GetObject(g.universe, id); existing != nil {
		return nil, &muderrs.DuplicateId{ID: id}
	}
	if _, err := g.classes.Get(class); err != nil {
		return nil, err
	}
	if parent != nil {
		parentObj, err := g.store.GetObject(g.universe, *parent)
		if err != nil || parentObj == nil {
			return nil, &muderrs.MissingParent{ParentID: *parent}
		}
	}
	resolved, err := g.classes.ResolveProperties(class, overrides)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	obj := &types.Object{
		ID:         id,
		Universe:   g.universe,
		Class:      class,
		Parent:     parent,
		Properties: resolved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := g.store.PutObject(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Get fetches an object by id.
func (g *Graph) Get(id string) (*types.Object, error) {
	return g.store.GetObject(g.universe, id)
}

// Update merges changeMap into an object's resolved properties, checking
// each key against the class chain's declared type.
func (g *Graph) Update(id string, changeMap map[string]any) error {
	obj, err := g.store.GetObject(g.universe, id)
	if err != nil {
		return err
	}
	chain, err := g.classes.Chain(obj.Class)
	if err != nil {
		return err
	}
	declared := map[string]string{}
	for i := len(chain) - 1; i >= 0; i-- {
		def, err := g.classes.Get(chain[i])
		if err != nil {
			return err
		}
		for k, spec := range def.PropertyDefaults {
			declared[k] = spec.Type
		}
	}
	for key, val := range changeMap {
		if expected, ok := declared[key]; ok && !typeMatches(expected, val) {
			return &muderrs.TypeMismatch{Key: key, Expected: expected}
		}
		obj.Properties[key] = val
	}
	obj.UpdatedAt = time.Now()
	return g.store.PutObject(obj)
}

func typeMatches(expected string, val any) bool {
	switch expected {
	case "string":
		_, ok := val.(string)
		return ok
	case "int":
		switch val.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "float":
		_, ok := val.(float64)
		return ok
	case "bool":
		_, ok := val.(bool)
		return ok
	case "list":
		_, ok := val.([]any)
		return ok
	case "map":
		_, ok := val.(map[string]any)
		return ok
	default:
		return true
	}
}

// Move reparents an object, rejecting cycles.
func (g *Graph) Move(id string, newParent string) error {
	obj, err := g.store.GetObject(g.universe, id)
	if err != nil {
		return err
	}
	if newParent == id {
		return &muderrs.Cycle{ID: id}
	}
	cur := &newParent
	for cur != nil {
		if *cur == id {
			return &muderrs.Cycle{ID: id}
		}
		ancestor, err := g.store.GetObject(g.universe, *cur)
		if err != nil {
			return &muderrs.MissingParent{ParentID: *cur}
		}
		cur = ancestor.Parent
	}
	obj.Parent = &newParent
	obj.UpdatedAt = time.Now()
	return g.store.PutObject(obj)
}

// Delete removes an object; the store cascades to its timers.
func (g *Graph) Delete(id string) error {
	return g.store.DeleteObject(g.universe, id)
}

// Children lists an object's direct contents, optionally filtered by class.
func (g *Graph) Children(parentID string, classFilter string) ([]*types.Object, error) {
	kids, err := g.store.ChildrenOf(g.universe, parentID)
	if err != nil {
		return nil, err
	}
	if classFilter == "" {
		return kids, nil
	}
	var out []*types.Object
	for _, k := range kids {
		if ok, _ := g.classes.IsA(k.Class, classFilter); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// Present does a case-insensitive prefix match on name among an
// environment's children, tie-breaking lexicographically by id.
func (g *Graph) Present(name, envID string) (*types.Object, error) {
	return g.present(name, envID, false)
}

// PresentLiving is Present restricted to the living class chain.
func (g *Graph) PresentLiving(name, envID string) (*types.Object, error) {
	return g.present(name, envID, true)
}

func (g *Graph) present(name, envID string, livingOnly bool) (*types.Object, error) {
	kids, err := g.store.ChildrenOf(g.universe, envID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	var matches []*types.Object
	for _, k := range kids {
		if !strings.HasPrefix(strings.ToLower(k.Name), needle) {
			continue
		}
		if livingOnly {
			isLiving, err := g.classes.IsA(k.Class, "living")
			if err != nil || !isLiving {
				continue
			}
		}
		matches = append(matches, k)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches[0], nil
}

// ActorsInRoom satisfies pkg/router.PresenceSource: every living object
// directly contained in roomID.
func (g *Graph) ActorsInRoom(universe, roomID string) []string {
	kids, err := g.store.ChildrenOf(universe, roomID)
	if err != nil {
		return nil
	}
	var out []string
	for _, k := range kids {
		if types.IsLivingClass(k.Class) {
			out = append(out, k.ID)
		}
	}
	return out
}

// ActorsInRegion satisfies pkg/router.PresenceSource: every living object
// contained under regionID, directly or through non-living containers
// such as rooms. mudforge models regions as containment ancestors rather
// than a separate membership table, so this walks the containment tree;
// it does not descend into living objects.
func (g *Graph) ActorsInRegion(universe, regionID string) []string {
	var out []string
	var walk func(id string)
	walk = func(id string) {
		kids, err := g.store.ChildrenOf(universe, id)
		if err != nil {
			return
		}
		for _, k := range kids {
			if types.IsLivingClass(k.Class) {
				out = append(out, k.ID)
			} else {
				walk(k.ID)
			}
		}
	}
	walk(regionID)
	return out
}
