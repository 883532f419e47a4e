// Package classes is the Class Registry: single-parent inheritance chains
// rooted at the built-in "thing" class, with property-default cascade and
// handler-name tracking.
package classes

import (
	"time"

	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/store"
	"github.com/cuemby/mudforge/pkg/types"
)

// builtinNames is the injected root chain. Builtins live only in memory
// and shadow any persisted table row of the same name; they can never be
// redefined.
var builtinNames = map[string]string{
	"thing":     "",
	"item":      "thing",
	"weapon":    "item",
	"armor":     "item",
	"container": "item",
	"living":    "thing",
	"player":    "living",
	"npc":       "living",
	"room":      "thing",
	"region":    "thing",
}

// Registry resolves class definitions for one universe, checking the
// in-memory builtin table before falling through to the store.
type Registry struct {
	universe string
	store    *store.Store
	builtin  map[string]*types.ClassDef
}

// New creates a Registry over the given store, pre-seeding the builtin
// chain.
func New(universe string, st *store.Store) *Registry {
	r := &Registry{universe: universe, store: st, builtin: make(map[string]*types.ClassDef)}
	now := time.Now()
	for name, parent := range builtinNames {
		var parentPtr *string
		if parent != "" {
			p := parent
			parentPtr = &p
		}
		r.builtin[name] = &types.ClassDef{
			Name:             name,
			Universe:         universe,
			ParentName:       parentPtr,
			PropertyDefaults: map[string]types.PropertySpec{},
			HandlerNames:     map[string]bool{},
			Builtin:          true,
			CreatedAt:        now,
		}
	}
	return r
}

// Define registers a new custom class. Builtin names are locked; existing
// custom names cannot be redefined (spec §4.2: persisted via define, not
// update-in-place).
func (r *Registry) Define(name string, parent string, defaults map[string]types.PropertySpec, handlers map[string]bool) error {
	if _, ok := r.builtin[name]; ok {
		return &muderrs.BuiltinLocked{Name: name}
	}
	if _, err := r.Get(name); err == nil {
		return &muderrs.ClassRedefine{Name: name}
	}
	if _, err := r.Get(parent); err != nil {
		return &muderrs.MissingParent{ParentID: parent}
	}
	parentName := parent
	def := &types.ClassDef{
		Name:             name,
		Universe:         r.universe,
		ParentName:       &parentName,
		PropertyDefaults: defaults,
		HandlerNames:     handlers,
		CreatedAt:        time.Now(),
	}
	return r.store.PutClass(def)
}

// Get resolves a class definition, builtin first.
func (r *Registry) Get(name string) (*types.ClassDef, error) {
	if def, ok := r.builtin[name]; ok {
		return def, nil
	}
	def, err := r.store.GetClass(r.universe, name)
	if err != nil {
		return nil, &muderrs.UnknownClass{Class: name}
	}
	return def, nil
}

// Chain returns [name, ..., "thing"], walking single-parent links.
func (r *Registry) Chain(name string) ([]string, error) {
	var chain []string
	cur := name
	seen := make(map[string]bool)
	for {
		if seen[cur] {
			return nil, &muderrs.Cycle{ID: cur}
		}
		seen[cur] = true
		chain = append(chain, cur)
		def, err := r.Get(cur)
		if err != nil {
			return nil, err
		}
		if def.ParentName == nil {
			return chain, nil
		}
		cur = *def.ParentName
	}
}

// IsA reports whether class (or its chain) includes ancestor.
func (r *Registry) IsA(class, ancestor string) (bool, error) {
	chain, err := r.Chain(class)
	if err != nil {
		return false, err
	}
	for _, c := range chain {
		if c == ancestor {
			return true, nil
		}
	}
	return false, nil
}

// ResolveProperties walks the chain from root to class, layering property
// defaults so a subclass's declaration overrides its ancestor's, then
// applies per-object overrides on top. This is the cascade spec §4.1's
// "resolved property map" refers to.
func (r *Registry) ResolveProperties(class string, overrides map[string]any) (map[string]any, error) {
	chain, err := r.Chain(class)
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		def, err := r.Get(chain[i])
		if err != nil {
			return nil, err
		}
		for key, spec := range def.PropertyDefaults {
			resolved[key] = spec.Default
		}
	}
	for key, val := range overrides {
		resolved[key] = val
	}
	return resolved, nil
}

// SetCode attaches the class-level script implementing name's declared
// handlers. Builtins carry no code of their own.
func (r *Registry) SetCode(name, hash string) error {
	if _, ok := r.builtin[name]; ok {
		return &muderrs.BuiltinLocked{Name: name}
	}
	return r.store.SetClassCode(r.universe, name, hash)
}

// DispatchFrame is one live handler invocation: the class chain it is
// dispatching within (rootClass), the ancestor whose code is currently
// executing (resolvedClass), and the handler name being run. parent(self,
// …) resolves against the top of a per-execution DispatchStack built from
// these, per spec §9's super-call trampoline.
type DispatchFrame struct {
	RootClass     string
	ResolvedClass string
	Handler       string
}

// DispatchStack is a per-execution call stack of DispatchFrames, pushed
// before a handler body runs and popped when it returns.
type DispatchStack struct {
	frames []DispatchFrame
}

// NewDispatchStack creates an empty stack for one execution.
func NewDispatchStack() *DispatchStack { return &DispatchStack{} }

// Push records a handler invocation as the new top frame.
func (s *DispatchStack) Push(f DispatchFrame) { s.frames = append(s.frames, f) }

// Pop discards the top frame once its handler body returns.
func (s *DispatchStack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Current returns the innermost live frame, if any.
func (s *DispatchStack) Current() (DispatchFrame, bool) {
	if len(s.frames) == 0 {
		return DispatchFrame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// NextAncestor walks rootClass's chain starting just past resolvedClass
// for the next ancestor that both declares handler and carries its own
// code, for parent(self, …)'s super-call.
func (r *Registry) NextAncestor(rootClass, resolvedClass, handler string) (class string, codeHash *string, ok bool, err error) {
	chain, err := r.Chain(rootClass)
	if err != nil {
		return "", nil, false, err
	}
	idx := -1
	for i, c := range chain {
		if c == resolvedClass {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", nil, false, nil
	}
	for i := idx + 1; i < len(chain); i++ {
		def, err := r.Get(chain[i])
		if err != nil {
			return "", nil, false, err
		}
		if def.HandlerNames[handler] && def.CodeHash != nil {
			return chain[i], def.CodeHash, true, nil
		}
	}
	return "", nil, false, nil
}

// HandlerChain returns every handler name declared anywhere in class's
// chain, root-first, used to build the contextual action table.
func (r *Registry) HandlerChain(class string) ([]string, error) {
	chain, err := r.Chain(class)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var handlers []string
	for i := len(chain) - 1; i >= 0; i-- {
		def, err := r.Get(chain[i])
		if err != nil {
			return nil, err
		}
		for h := range def.HandlerNames {
			if !seen[h] {
				seen[h] = true
				handlers = append(handlers, h)
			}
		}
	}
	return handlers, nil
}
