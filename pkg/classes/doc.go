/*
Package classes implements the Class Registry: single-parent inheritance
chains rooted at the built-in "thing" class.

The root chain (thing, item, weapon, armor, container, living, player,
npc, room, region) is injected in memory at Registry construction and
shadows the persisted classes table — builtins cannot be redefined.
Custom classes declared by scripts via game.define_class persist through
pkg/store and resolve the same way.

# Usage

	reg := classes.New("main", st)
	reg.Define("goblin", "npc", map[string]types.PropertySpec{
		"hp": {Type: "int", Default: 10},
	}, map[string]bool{"on_init": true})

	props, err := reg.ResolveProperties("goblin", map[string]any{"hp": 8})

# See Also

  - pkg/objectgraph, which calls ResolveProperties on create()
  - pkg/cascade, which uses HandlerChain to drive the init() cascade
*/
package classes
