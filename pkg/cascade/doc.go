/*
Package cascade implements the init() cascade from spec §4.6: the
arrival sequence every successful move_object triggers.

Given mover M moving from source S to destination D: M.on_move(from=S,
to=D) fires first if S is non-nil, then D.on_enter(M), then for each
sibling Y already in D (ascending id order, Y != M) Y.on_init(M)
followed by M.on_init(Y), and finally M.on_init(D). A handler that the
object's class chain doesn't advertise is skipped rather than erroring.

The cascade runs inside the triggering call's own sandbox execution —
Run takes the caller's Invoker so every handler call is metered against
the same budget as the move itself.

# See Also

  - pkg/hostapi, which calls Run after a successful move/create
  - pkg/classes.HandlerChain, used to test whether a handler exists
*/
package cascade
