package combat

import (
	"fmt"
	"testing"

	"github.com/cuemby/mudforge/pkg/rng"
)

func TestApplyDamageType(t *testing.T) {
	cases := []struct {
		dmg  int
		kind DamageType
		want int
	}{
		{10, DamageNormal, 10},
		{10, DamageImmune, 0},
		{10, DamageResistant, 5},
		{10, DamageVulnerable, 20},
	}
	for _, c := range cases {
		if got := ApplyDamageType(c.dmg, c.kind); got != c.want {
			t.Fatalf("ApplyDamageType(%d, %s) = %d, want %d", c.dmg, c.kind, got, c.want)
		}
	}
}

func TestResolveImmuneDefenderTakesNoDamageOnHit(t *testing.T) {
	attacker := Combatant{AttackBonus: 100, DamageDice: "1d8", DamageBonus: 0}
	defender := Combatant{ArmorClass: 1, DefaultResistance: DamageImmune}
	for i := 0; i < 50; i++ {
		r := rng.Seed("u1", int64(i), "attacker")
		res, err := Resolve(r, attacker, defender)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.Hit && res.Damage != 0 {
			t.Fatalf("expected immune defender to take 0 damage on hit, got %d", res.Damage)
		}
	}
}

func TestResolveCriticalDoublesDiceRoll(t *testing.T) {
	attacker := Combatant{AttackBonus: 0, DamageDice: "1d1", DamageBonus: 0}
	defender := Combatant{ArmorClass: 5}
	found := false
	for i := 0; i < 2000 && !found; i++ {
		r := rng.Seed("u1", int64(i), "attacker")
		res, err := Resolve(r, attacker, defender)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.Critical {
			found = true
			// 1d1 always rolls 1; critical adds one more 1d1 roll.
			if res.RawDamage != 2 {
				t.Fatalf("expected critical 1d1+1d1 damage of 2, got %d", res.RawDamage)
			}
		}
	}
	if !found {
		t.Fatal("expected at least one natural-20 critical in 2000 attempts")
	}
}

func TestResolveNatural1AlwaysMisses(t *testing.T) {
	attacker := Combatant{AttackBonus: 100, DamageDice: "1d8"}
	defender := Combatant{ArmorClass: 1}
	found := false
	for i := 0; i < 2000 && !found; i++ {
		r := rng.Seed("u1", int64(i), "attacker")
		res, err := Resolve(r, attacker, defender)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.Miss1 {
			found = true
			if res.Hit {
				t.Fatal("expected natural 1 to always miss despite huge attack bonus")
			}
		}
	}
	if !found {
		t.Fatal("expected at least one natural 1 in 2000 attempts")
	}
}

// TestResolveElementalComponentIndependentOfPhysical reproduces spec
// §4.9's fire-sword scenario: a flaming sword's physical edge lands while
// its fire is wasted on an immune goblin, as two independently-resolved
// damage components.
func TestResolveElementalComponentIndependentOfPhysical(t *testing.T) {
	attacker := Combatant{
		AttackBonus:         5,
		DamageDice:          "1d8",
		DamageBonus:         1,
		DamageKind:          "physical",
		ElementalDamageDice: "1d6",
		ElementalDamageKind: "fire",
	}
	defender := Combatant{
		ArmorClass:   10,
		Resistances:  map[string]DamageType{"fire": DamageImmune},
	}

	var found *AttackResult
	var seed int64
	for seed = 0; seed < 5000 && found == nil; seed++ {
		r := rng.Seed("u1", seed, "hero")
		res, err := Resolve(r, attacker, defender)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.Hit && !res.Critical && len(res.Components) == 2 &&
			res.Components[0].Applied > 0 && res.Components[1].Applied == 0 {
			found = res
		}
	}
	if found == nil {
		t.Fatal("expected to find a hit where physical lands and fire is fully negated")
	}
	if found.Components[0].Kind != "physical" || found.Components[1].Kind != "fire" {
		t.Fatalf("unexpected component kinds: %+v", found.Components)
	}
	if found.Components[1].Modifier != DamageImmune {
		t.Fatalf("expected fire component to resolve as immune, got %q", found.Components[1].Modifier)
	}
	if found.Damage != found.Components[0].Applied {
		t.Fatalf("expected total damage to equal just the physical component, got %d vs %d", found.Damage, found.Components[0].Applied)
	}

	lines := FormatMessages("hero", "fire-1", found)
	if len(lines) != 2 {
		t.Fatalf("expected two narration lines, got %v", lines)
	}
	wantPhysical := fmt.Sprintf("hero hits fire-1 for %d damage!", found.Components[0].Applied)
	if lines[0] != wantPhysical {
		t.Fatalf("expected physical narration %q, got %q", wantPhysical, lines[0])
	}
	if lines[1] != "fire-1 is immune to fire!" {
		t.Fatalf("expected fire immunity narration, got %q", lines[1])
	}
}

func TestFormatMessagesOnMiss(t *testing.T) {
	res := &AttackResult{Hit: false}
	lines := FormatMessages("hero", "fire-1", res)
	if len(lines) != 1 || lines[0] != "hero misses fire-1." {
		t.Fatalf("unexpected miss narration: %v", lines)
	}
}

func TestInitiateRespectsCanAttack(t *testing.T) {
	attacker := Combatant{IsPlayer: true}
	defender := Combatant{IsPlayer: true}
	if _, ok := Initiate(PvPDisabled, "/npc/target", attacker, defender); ok {
		t.Fatal("expected Initiate to refuse PvP when policy disallows it")
	}
	change, ok := Initiate(PvPOpen, "/npc/target", attacker, defender)
	if !ok || change["attacking"] != "/npc/target" {
		t.Fatalf("expected Initiate to stage metadata.attacking, got %v, ok=%v", change, ok)
	}
}

func TestCanAttackNonPlayerCombatAlwaysAllowed(t *testing.T) {
	npcA := Combatant{IsPlayer: false}
	npcB := Combatant{IsPlayer: false}
	if !CanAttack(PvPDisabled, npcA, npcB) {
		t.Fatal("expected NPC-vs-NPC combat always allowed regardless of policy")
	}
}

func TestCanAttackPvPDisabled(t *testing.T) {
	p1 := Combatant{IsPlayer: true}
	p2 := Combatant{IsPlayer: true}
	if CanAttack(PvPDisabled, p1, p2) {
		t.Fatal("expected PvP disabled to block player-vs-player")
	}
}

func TestCanAttackArenaOnlyRequiresBothInArena(t *testing.T) {
	p1 := Combatant{IsPlayer: true, InArena: true}
	p2 := Combatant{IsPlayer: true, InArena: false}
	if CanAttack(PvPArenaOnly, p1, p2) {
		t.Fatal("expected arena-only to require both combatants in arena")
	}
	p2.InArena = true
	if !CanAttack(PvPArenaOnly, p1, p2) {
		t.Fatal("expected arena-only to allow both combatants in arena")
	}
}

func TestCanAttackFlaggedRequiresBothFlagged(t *testing.T) {
	p1 := Combatant{IsPlayer: true, PvPFlagged: true}
	p2 := Combatant{IsPlayer: true, PvPFlagged: false}
	if CanAttack(PvPFlagged, p1, p2) {
		t.Fatal("expected flagged policy to require both combatants flagged")
	}
	p2.PvPFlagged = true
	if !CanAttack(PvPFlagged, p1, p2) {
		t.Fatal("expected flagged policy to allow two flagged combatants")
	}
}

func TestCanAttackOpenAlwaysAllowed(t *testing.T) {
	p1 := Combatant{IsPlayer: true}
	p2 := Combatant{IsPlayer: true}
	if !CanAttack(PvPOpen, p1, p2) {
		t.Fatal("expected open PvP to always allow")
	}
}

func TestTickDamageOverTimeAndExpiry(t *testing.T) {
	e := &Effect{Kind: "dot", DamagePerTick: 4, Remaining: 2}
	res := Tick(e, DamageNormal)
	if res.Damage != 4 || res.Expired {
		t.Fatalf("unexpected first tick: %+v", res)
	}
	res = Tick(e, DamageNormal)
	if res.Damage != 4 || !res.Expired {
		t.Fatalf("expected expiry on second tick, got %+v", res)
	}
}

func TestTickBlockingEffectDealsNoDamage(t *testing.T) {
	e := &Effect{Kind: "stunned", BlocksAction: true, Remaining: 1}
	res := Tick(e, DamageNormal)
	if res.Damage != 0 || !res.Expired {
		t.Fatalf("unexpected tick: %+v", res)
	}
}

func TestTickAppliesDamageTypeToDot(t *testing.T) {
	e := &Effect{Kind: "dot", DamagePerTick: 10, Remaining: 1}
	res := Tick(e, DamageResistant)
	if res.Damage != 5 {
		t.Fatalf("expected resistant dot damage of 5, got %d", res.Damage)
	}
}
