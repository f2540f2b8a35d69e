package ghost

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/kasuganosora/ghostai/game/board"
)

var ErrUnknownArchetype = errors.New("ghost: unknown archetype")

// Archetype is the fixed identity of a ghost; strategies dispatch on it.
type Archetype int

const (
	Blinky Archetype = iota
	Pinky
	Inky
	Clyde
)

// Archetypes lists every known archetype in spawn order.
var Archetypes = [4]Archetype{Blinky, Pinky, Inky, Clyde}

func (a Archetype) String() string {
	switch a {
	case Blinky:
		return "blinky"
	case Pinky:
		return "pinky"
	case Inky:
		return "inky"
	case Clyde:
		return "clyde"
	}
	return fmt.Sprintf("archetype(%d)", int(a))
}

// ParseArchetype parses an archetype name, case-insensitive.
func ParseArchetype(s string) (Archetype, error) {
	for _, a := range Archetypes {
		if strings.EqualFold(strings.TrimSpace(s), a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
}

// Ghost is the per-ghost mutable state owned by the game loop.
// Strategies read its square and write its facing and home flag.
type Ghost struct {
	board.Occupant
	archetype Archetype
	home      bool
	rng       *rand.Rand
}

// New creates a ghost facing north. rng drives RandomMove; pass a seeded
// source for reproducible games. A nil rng gets a fixed-seed source.
func New(a Archetype, rng *rand.Rand) *Ghost {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Ghost{archetype: a, rng: rng}
}

// Kind implements board.Unit.
func (g *Ghost) Kind() board.Kind { return board.KindGhost }

func (g *Ghost) Archetype() Archetype { return g.archetype }

// Occupy moves the ghost onto target.
func (g *Ghost) Occupy(target *board.Square) {
	g.Occupant.Occupy(g, target)
}

// IsHome reports whether the ghost has reached its scatter corner this round.
func (g *Ghost) IsHome() bool { return g.home }

// MarkHome records arrival at the scatter corner and turns to facing.
// Within a round the flag only ever goes from false to true.
func (g *Ghost) MarkHome(facing board.Direction) {
	g.home = true
	g.SetDirection(facing)
}

// ResetHome clears the home flag at a round boundary.
func (g *Ghost) ResetHome() {
	g.home = false
}

// RandomMove picks uniformly among the directions whose neighbor is
// accessible to this ghost. ok is false when the ghost is shut in or off
// the board.
func (g *Ghost) RandomMove() (d board.Direction, ok bool) {
	sq := g.Square()
	if sq == nil {
		return 0, false
	}
	options := make([]board.Direction, 0, len(board.Directions))
	for _, d := range board.Directions {
		if sq.SquareAt(d).IsAccessibleTo(g) {
			options = append(options, d)
		}
	}
	if len(options) == 0 {
		return 0, false
	}
	return options[g.rng.Intn(len(options))], true
}
