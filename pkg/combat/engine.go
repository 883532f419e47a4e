package combat

import (
	"strings"

	"github.com/cuemby/mudforge/pkg/rng"
	"github.com/cuemby/mudforge/pkg/router"
	"github.com/cuemby/mudforge/pkg/types"
)

// ObjectStore is the subset of the object graph Engine needs: reading
// combat-relevant properties and writing back the results of an attack.
type ObjectStore interface {
	Get(id string) (*types.Object, error)
	Update(id string, changes map[string]any) error
}

// ClassChecker answers "is this object's class living", the heart-beat
// combat loop's eligibility test.
type ClassChecker interface {
	IsA(class, ancestor string) (bool, error)
}

// Engine wires the damage-resolution policy onto the live object graph
// for spec §4.9's heart-beat combat loop: each living's heart-beat
// performs one attack against metadata.attacking if set and in the same
// room. It is the thing pkg/scheduler calls when a living object's
// heart-beat has no script override.
type Engine struct {
	Graph   ObjectStore
	Classes ClassChecker
	Policy  PvPPolicy
}

// NewEngine creates an Engine over the given object graph and class
// registry.
func NewEngine(graph ObjectStore, classes ClassChecker, policy PvPPolicy) *Engine {
	return &Engine{Graph: graph, Classes: classes, Policy: policy}
}

// Update is one object-property change Tick applied directly to Graph,
// reported back so a caller that replicates through a Mutation Collector
// (pkg/scheduler, across Raft) can stage the equivalent intent.
type Update struct {
	ObjectID string
	Changes  map[string]any
}

// Tick resolves attackerID's heart-beat combat behavior. ok is false when
// there was nothing to do — not living, no metadata.attacking, target
// gone, or not sharing a room — which the caller should treat the same
// as any other no-op heart-beat. updates lists the writes Tick already
// applied to Graph, in order, for replication bookkeeping.
func (e *Engine) Tick(r *rng.Source, attackerID string) (msgs []router.Message, updates []Update, ok bool, err error) {
	attackerObj, err := e.Graph.Get(attackerID)
	if err != nil || attackerObj == nil {
		return nil, nil, false, nil
	}
	living, err := e.Classes.IsA(attackerObj.Class, "living")
	if err != nil || !living {
		return nil, nil, false, nil
	}

	defenderID, _ := metadataOf(attackerObj)["attacking"].(string)
	if defenderID == "" {
		return nil, nil, false, nil
	}
	defenderObj, err := e.Graph.Get(defenderID)
	if err != nil || defenderObj == nil {
		change := map[string]any{"metadata": clearAttacking(attackerObj)}
		if err := e.Graph.Update(attackerID, change); err != nil {
			return nil, nil, false, err
		}
		return nil, []Update{{ObjectID: attackerID, Changes: change}}, false, nil
	}
	if attackerObj.Parent == nil || defenderObj.Parent == nil || *attackerObj.Parent != *defenderObj.Parent {
		return nil, nil, false, nil
	}

	attackerPlayer, _ := e.Classes.IsA(attackerObj.Class, "player")
	defenderPlayer, _ := e.Classes.IsA(defenderObj.Class, "player")

	attacker := e.combatantFor(attackerObj, attackerPlayer)
	defender := e.combatantFor(defenderObj, defenderPlayer)
	if !CanAttack(e.Policy, attacker, defender) {
		change := map[string]any{"metadata": clearAttacking(attackerObj)}
		if err := e.Graph.Update(attackerID, change); err != nil {
			return nil, nil, false, err
		}
		return nil, []Update{{ObjectID: attackerID, Changes: change}}, true, nil
	}

	res, err := Resolve(r, attacker, defender)
	if err != nil {
		return nil, nil, false, err
	}

	roomID := *attackerObj.Parent
	attackerName, defenderName := displayName(attackerObj), displayName(defenderObj)
	for _, line := range FormatMessages(attackerName, defenderName, res) {
		msgs = append(msgs, router.Message{Kind: router.KindRoom, TargetID: roomID, Text: line})
	}
	if res.Damage == 0 {
		return msgs, nil, true, nil
	}

	newHealth := propFloat(defenderObj.Properties, "health") - float64(res.Damage)
	healthChange := map[string]any{"health": newHealth}
	if err := e.Graph.Update(defenderID, healthChange); err != nil {
		return nil, nil, false, err
	}
	updates = append(updates, Update{ObjectID: defenderID, Changes: healthChange})

	if newHealth <= 0 {
		clearChange := map[string]any{"metadata": clearAttacking(attackerObj)}
		if err := e.Graph.Update(attackerID, clearChange); err != nil {
			return nil, nil, false, err
		}
		updates = append(updates, Update{ObjectID: attackerID, Changes: clearChange})
		msgs = append(msgs, router.Message{Kind: router.KindRoom, TargetID: roomID, Text: defenderName + " falls."})
	}
	return msgs, updates, true, nil
}

// displayName prefers an object's given Name, falling back to its path's
// final segment — "fire-1" for "/npcs/fire-1" — matching spec §4.9's
// worked-scenario narration.
func displayName(obj *types.Object) string {
	if obj.Name != "" {
		return obj.Name
	}
	parts := strings.Split(obj.ID, "/")
	return parts[len(parts)-1]
}

// combatantFor builds a Combatant from an object's own properties,
// layering its wielded weapon's damage fields (named by a "wielding"
// property holding an object id) over its own, per spec §4.9's fire-sword
// scenario where the weapon — not the wielder — carries damage_dice/
// damage_type/elemental_damage_dice.
func (e *Engine) combatantFor(obj *types.Object, isPlayer bool) Combatant {
	dmgSrc := obj.Properties
	if weaponID, ok := obj.Properties["wielding"].(string); ok && weaponID != "" {
		if weapon, err := e.Graph.Get(weaponID); err == nil && weapon != nil {
			dmgSrc = weapon.Properties
		}
	}

	meta := metadataOf(obj)
	resistances := map[string]DamageType{}
	collectResistance(resistances, meta, "immunities", DamageImmune)
	collectResistance(resistances, meta, "resistances", DamageResistant)
	collectResistance(resistances, meta, "vulnerabilities", DamageVulnerable)

	inArena, _ := meta["in_arena"].(bool)
	pvpFlagged, _ := meta["pvp_flagged"].(bool)

	return Combatant{
		AttackBonus:          propInt(obj.Properties, "attack_bonus"),
		ArmorClass:           propInt(obj.Properties, "armor_class"),
		DamageDice:           propString(dmgSrc, "damage_dice", "1d4"),
		DamageBonus:          propInt(dmgSrc, "damage_bonus"),
		DamageKind:           propString(dmgSrc, "damage_type", "physical"),
		ElementalDamageDice:  propString(dmgSrc, "elemental_damage_dice", ""),
		ElementalDamageBonus: propInt(dmgSrc, "elemental_damage_bonus"),
		ElementalDamageKind:  propString(dmgSrc, "elemental_damage_type", ""),
		Resistances:          resistances,
		IsPlayer:             isPlayer,
		InArena:              inArena,
		PvPFlagged:           pvpFlagged,
	}
}

func metadataOf(obj *types.Object) map[string]any {
	if m, ok := obj.Properties["metadata"].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func clearAttacking(obj *types.Object) map[string]any {
	meta := map[string]any{}
	for k, v := range metadataOf(obj) {
		meta[k] = v
	}
	delete(meta, "attacking")
	return meta
}

func collectResistance(dst map[string]DamageType, meta map[string]any, key string, modifier DamageType) {
	m, ok := meta[key].(map[string]any)
	if !ok {
		return
	}
	for kind, v := range m {
		if on, ok := v.(bool); ok && on {
			dst[kind] = modifier
		}
	}
}

func propInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func propFloat(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func propString(props map[string]any, key, def string) string {
	if s, ok := props[key].(string); ok && s != "" {
		return s
	}
	return def
}
