// Package rng provides the deterministic, per-execution pseudo-random
// source spec §4.5 requires: every command's rng_seed is derived from
// (universe_id, command_seq, actor_id) so replays on any replica produce
// identical rolls. No third-party PRNG in the example pack offers this
// seed-derivation discipline as a first-class feature, and owning the
// hashing/seeding step ourselves is what keeps replication deterministic
// — so this package is one of the few built directly on stdlib math/rand.
package rng

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/cuemby/mudforge/pkg/muderrs"
)

// Source is a seeded PRNG scoped to one script execution.
type Source struct {
	r *rand.Rand
}

// Seed derives a 64-bit seed from the execution's identity triple and
// returns a ready-to-use Source.
func Seed(universeID string, commandSeq int64, actorID string) *Source {
	h := fnv.New64a()
	h.Write([]byte(universeID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(commandSeq, 10)))
	h.Write([]byte{0})
	h.Write([]byte(actorID))
	return &Source{r: rand.New(rand.NewSource(int64(h.Sum64())))}
}

// Intn returns a pseudo-random int in [0, n).
func (s *Source) Intn(n int) int { return s.r.Intn(n) }

// Float64 returns a pseudo-random float in [0, 1).
func (s *Source) Float64() float64 { return s.r.Float64() }

var diceRE = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Roll parses dice notation ("2d6+1") and returns the summed result.
func (s *Source) Roll(notation string) (int, error) {
	m := diceRE.FindStringSubmatch(strings.TrimSpace(notation))
	if m == nil {
		return 0, &muderrs.ScriptError{Message: fmt.Sprintf("invalid dice notation: %q", notation)}
	}
	count, _ := strconv.Atoi(m[1])
	sides, _ := strconv.Atoi(m[2])
	if count <= 0 || sides <= 0 || count > 1000 {
		return 0, &muderrs.ScriptError{Message: fmt.Sprintf("invalid dice notation: %q", notation)}
	}
	total := 0
	for i := 0; i < count; i++ {
		total += s.r.Intn(sides) + 1
	}
	if m[3] != "" {
		mod, _ := strconv.Atoi(m[3])
		total += mod
	}
	return total, nil
}
