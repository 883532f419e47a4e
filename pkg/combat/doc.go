/*
Package combat implements the damage-resolution policy from spec §4.9:
d20-plus-bonus attack rolls against armor class, critical hits on a
natural 20 (double damage dice), automatic misses on a natural 1, damage-
type modifiers (immune/resistant/vulnerable), PvP policy gating, and
per-heart-beat status effect ticking.

All randomness flows through pkg/rng.Source so combat outcomes replay
identically across replicas given the same execution seed.

# Usage

	result, err := combat.Resolve(src, attacker, defender)
	if result.Hit {
		health -= result.Damage
	}

# See Also

  - pkg/rng for the seeded dice roller this package rolls against
  - pkg/scheduler, which runs Engine.Tick on a living object's heart-beat
*/
package combat
