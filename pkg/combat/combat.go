// Package combat implements the damage-resolution and status-effect
// policy from spec §4.9, built on pkg/rng's seeded dice roller.
package combat

import (
	"fmt"

	"github.com/cuemby/mudforge/pkg/rng"
)

// PvPPolicy enumerates who may initiate player-vs-player combat.
type PvPPolicy string

const (
	PvPDisabled  PvPPolicy = "disabled"
	PvPArenaOnly PvPPolicy = "arena_only"
	PvPFlagged   PvPPolicy = "flagged"
	PvPOpen      PvPPolicy = "open"
)

// DamageType modifies how raw damage lands on a defender.
type DamageType string

const (
	DamageNormal     DamageType = "normal"
	DamageImmune     DamageType = "immune"
	DamageResistant  DamageType = "resistant"
	DamageVulnerable DamageType = "vulnerable"
)

// Combatant is the subset of fields damage resolution needs. A weapon's
// damage component is folded into the wielder's Combatant before Resolve
// is called (see Engine.combatantFor); Combatant itself has no notion of
// equipment.
type Combatant struct {
	AttackBonus int
	ArmorClass  int

	// Physical (or whatever DamageKind names) damage component, always
	// present on a hit.
	DamageDice  string // e.g. "1d8"
	DamageBonus int
	DamageKind  string // e.g. "physical"; empty defaults to "physical"

	// Elemental damage component, present only when ElementalDamageDice
	// is non-empty — e.g. a flaming sword's "1d6 fire" on top of its
	// physical "1d8".
	ElementalDamageDice  string
	ElementalDamageBonus int
	ElementalDamageKind  string

	// Resistances maps a damage kind (as named by DamageKind/
	// ElementalDamageKind) to how the defender's body answers it, e.g.
	// {"fire": DamageImmune}. A kind absent from the map falls back to
	// DefaultResistance, then DamageNormal.
	Resistances       map[string]DamageType
	DefaultResistance DamageType

	IsPlayer   bool
	InArena    bool
	PvPFlagged bool
}

// resistanceFor looks up how this combatant, as defender, answers a given
// damage kind.
func (c Combatant) resistanceFor(kind string) DamageType {
	if m, ok := c.Resistances[kind]; ok {
		return m
	}
	if c.DefaultResistance != "" {
		return c.DefaultResistance
	}
	return DamageNormal
}

// DamageComponent is one damage roll within an attack — physical,
// elemental, or any future third kind — after the defender's resistance
// has been applied.
type DamageComponent struct {
	Kind     string
	Raw      int
	Applied  int
	Modifier DamageType
}

// AttackResult is the outcome of one attack roll plus its damage rolls.
type AttackResult struct {
	AttackRoll int
	Hit        bool
	Critical   bool
	Miss1      bool // natural 1, always misses
	Components []DamageComponent
	RawDamage  int // sum of Components[*].Raw
	Damage     int // sum of Components[*].Applied
}

// Resolve performs one attack: d20 + attacker bonus vs armor class, then
// rolls the attacker's damage components on hit — adding one extra roll
// of each component's dice on a natural-20 critical — and applies the defender's per-kind resistance to
// each independently, so e.g. a flaming sword's physical edge can land
// while its fire is shrugged off by an immune foe.
func Resolve(r *rng.Source, attacker, defender Combatant) (*AttackResult, error) {
	d20 := r.Intn(20) + 1
	res := &AttackResult{AttackRoll: d20 + attacker.AttackBonus}

	switch {
	case d20 == 20:
		res.Hit = true
		res.Critical = true
	case d20 == 1:
		res.Miss1 = true
	default:
		res.Hit = res.AttackRoll >= defender.ArmorClass
	}

	if !res.Hit {
		return res, nil
	}

	kind := attacker.DamageKind
	if kind == "" {
		kind = "physical"
	}
	comp, err := rollComponent(r, attacker.DamageDice, attacker.DamageBonus, kind, defender, res.Critical)
	if err != nil {
		return nil, err
	}
	res.Components = append(res.Components, comp)

	if attacker.ElementalDamageDice != "" {
		ekind := attacker.ElementalDamageKind
		if ekind == "" {
			ekind = "elemental"
		}
		ecomp, err := rollComponent(r, attacker.ElementalDamageDice, attacker.ElementalDamageBonus, ekind, defender, res.Critical)
		if err != nil {
			return nil, err
		}
		res.Components = append(res.Components, ecomp)
	}

	for _, c := range res.Components {
		res.RawDamage += c.Raw
		res.Damage += c.Applied
	}
	return res, nil
}

func rollComponent(r *rng.Source, dice string, bonus int, kind string, defender Combatant, critical bool) (DamageComponent, error) {
	dmg, err := r.Roll(dice)
	if err != nil {
		return DamageComponent{}, err
	}
	dmg += bonus
	if critical {
		extra, err := r.Roll(dice)
		if err != nil {
			return DamageComponent{}, err
		}
		dmg += extra
	}
	modifier := defender.resistanceFor(kind)
	return DamageComponent{Kind: kind, Raw: dmg, Applied: ApplyDamageType(dmg, modifier), Modifier: modifier}, nil
}

// ApplyDamageType applies the damage-type modifier from spec §4.9.
func ApplyDamageType(dmg int, t DamageType) int {
	switch t {
	case DamageImmune:
		return 0
	case DamageResistant:
		return dmg / 2
	case DamageVulnerable:
		return dmg * 2
	default:
		return dmg
	}
}

// CanAttack applies the PvP policy to a prospective attacker/defender
// pair. The policy applies only when both sides are players; any pairing
// with a non-player on either side is always allowed.
func CanAttack(policy PvPPolicy, attacker, defender Combatant) bool {
	if !attacker.IsPlayer || !defender.IsPlayer {
		return true
	}
	switch policy {
	case PvPDisabled:
		return false
	case PvPArenaOnly:
		return attacker.InArena && defender.InArena
	case PvPFlagged:
		return attacker.PvPFlagged && defender.PvPFlagged
	case PvPOpen:
		return true
	default:
		return false
	}
}

// Initiate is Combat.initiate: starting a fight requires CanAttack to
// allow the pairing. On success it returns the metadata change the
// caller applies to the attacker (metadata.attacking = defenderID),
// which is what the heart-beat loop polls each tick.
func Initiate(policy PvPPolicy, defenderID string, attacker, defender Combatant) (change map[string]any, ok bool) {
	if !CanAttack(policy, attacker, defender) {
		return nil, false
	}
	return map[string]any{"attacking": defenderID}, true
}

// FormatMessages narrates one AttackResult the way spec §4.9's worked
// scenarios do: a miss gets one line, a hit gets one line per damage
// component that either landed or was fully negated by immunity.
func FormatMessages(attackerName, defenderName string, res *AttackResult) []string {
	if !res.Hit {
		return []string{attackerName + " misses " + defenderName + "."}
	}
	var lines []string
	for _, c := range res.Components {
		switch {
		case c.Modifier == DamageImmune:
			lines = append(lines, fmt.Sprintf("%s is immune to %s!", defenderName, c.Kind))
		case c.Applied > 0:
			lines = append(lines, fmt.Sprintf("%s hits %s for %d damage!", attackerName, defenderName, c.Applied))
		}
	}
	return lines
}

// Effect is a status effect ticked once per heart-beat.
type Effect struct {
	Kind          string // "dot", "stunned", "frozen", ...
	DamagePerTick int
	DamageType    DamageType
	Remaining     int
	BlocksAction  bool
}

// TickResult is the outcome of ticking one effect.
type TickResult struct {
	Damage  int
	Expired bool
}

// Tick advances one effect by one heart-beat: damage-over-time effects
// deal their configured damage (modified by damage type), blocking
// effects (stunned/frozen) deal none, and remaining always decrements,
// expiring at zero.
func Tick(e *Effect, defenderType DamageType) TickResult {
	var dmg int
	if e.DamagePerTick > 0 {
		dmg = ApplyDamageType(e.DamagePerTick, defenderType)
	}
	e.Remaining--
	return TickResult{Damage: dmg, Expired: e.Remaining <= 0}
}
