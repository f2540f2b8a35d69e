package strategy

import (
	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
)

// ScatterOption configures a Scatter strategy.
type ScatterOption func(*Scatter)

// WithLegacyArrival makes the arrival tick still path toward the home
// square. Since the ghost is already there, no path exists and the move
// falls back to random; patrol starts on the following tick.
func WithLegacyArrival() ScatterOption {
	return func(s *Scatter) { s.legacyArrival = true }
}

// Scatter sends each ghost to its home corner and, once there, keeps it
// circling the corner: clockwise for Blinky and Inky, counter-clockwise
// for Pinky and Clyde.
type Scatter struct {
	grid          Grid
	legacyArrival bool
}

func NewScatter(grid Grid, opts ...ScatterOption) *Scatter {
	s := &Scatter{grid: grid}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Home returns the archetype's corner square, one tile in from the border,
// and the facing it adopts on arrival.
func (s *Scatter) Home(a ghost.Archetype) (*board.Square, board.Direction, bool) {
	w, h := s.grid.Width(), s.grid.Height()
	switch a {
	case ghost.Blinky:
		return s.grid.SquareAt(w-2, 1), board.East, true
	case ghost.Pinky:
		return s.grid.SquareAt(1, 1), board.West, true
	case ghost.Inky:
		return s.grid.SquareAt(w-2, h-2), board.South, true
	case ghost.Clyde:
		return s.grid.SquareAt(1, h-2), board.South, true
	}
	return nil, 0, false
}

// CheckArrival marks the ghost home and turns it to the arrival facing
// when it stands on its home square. Returns true on that transition.
func (s *Scatter) CheckArrival(g *ghost.Ghost) bool {
	if g.IsHome() {
		return false
	}
	home, facing, ok := s.Home(g.Archetype())
	if !ok || home == nil || g.Square() != home {
		return false
	}
	g.MarkHome(facing)
	return true
}

// Move performs the arrival check (which may set the ghost's home flag and
// facing) and then returns the next direction: toward home while
// travelling, or the corner patrol rule once home. Unknown archetypes
// produce no move and are left untouched.
func (s *Scatter) Move(g *ghost.Ghost) (board.Direction, bool) {
	home, _, ok := s.Home(g.Archetype())
	if !ok {
		return 0, false
	}
	if !g.IsHome() {
		arrived := s.CheckArrival(g)
		if !arrived || s.legacyArrival {
			return NextDirectionToward(g, home)
		}
	}
	return s.patrol(g), true
}

func (s *Scatter) patrol(g *ghost.Ghost) board.Direction {
	switch g.Archetype() {
	case ghost.Blinky:
		return turnRight(g)
	case ghost.Pinky:
		return turnLeft(g)
	case ghost.Inky:
		return cornerPatrol(g, board.East, turnRight)
	default: // Clyde
		return cornerPatrol(g, board.West, turnLeft)
	}
}

// cornerPatrol is the bottom-corner rule. along is the direction the ghost
// runs on the bottom edge (east for Inky, west for Clyde). In a corridor
// (two exits or fewer) it climbs north off the edge, or swings back along
// it when coming down; at a junction it keeps running along the edge.
// Otherwise it falls back to the base turn rule.
func cornerPatrol(g *ghost.Ghost, along board.Direction, fallback func(*ghost.Ghost) board.Direction) board.Direction {
	exits := possibilities(g)
	facing := g.Direction()
	if len(exits) <= 2 {
		switch {
		case facing == along && exits[board.North]:
			return board.North
		case facing == board.South && exits[along]:
			return along
		}
	} else if facing == along && exits[along] {
		return along
	}
	return fallback(g)
}

// possibilities collects the directions the ghost can currently step in.
func possibilities(g *ghost.Ghost) map[board.Direction]bool {
	out := make(map[board.Direction]bool, len(board.Directions))
	sq := g.Square()
	for _, d := range board.Directions {
		if sq.SquareAt(d).IsAccessibleTo(g) {
			out[d] = true
		}
	}
	return out
}

// turnRight takes the clockwise turn if open, else keeps the current facing.
func turnRight(g *ghost.Ghost) board.Direction {
	return turnOrKeep(g, g.Direction().Right())
}

// turnLeft takes the counter-clockwise turn if open, else keeps the current facing.
func turnLeft(g *ghost.Ghost) board.Direction {
	return turnOrKeep(g, g.Direction().Left())
}

func turnOrKeep(g *ghost.Ghost, d board.Direction) board.Direction {
	if g.Square().SquareAt(d).IsAccessibleTo(g) {
		return d
	}
	return g.Direction()
}
