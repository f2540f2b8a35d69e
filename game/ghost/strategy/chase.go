package strategy

import (
	"github.com/kasuganosora/ghostai/game/ai"
	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
)

const (
	lookAhead   = 4 // Pinky/Inky target offset from the player
	shyDistance = 8 // Clyde flees at or inside this path length
)

// Chase sends every ghost after the player, each with its own targeting.
// It needs no board reference: all targets derive from the player's square.
type Chase struct{}

func NewChase() *Chase { return &Chase{} }

// Move dispatches on archetype. Unknown archetypes produce no move.
func (c *Chase) Move(g *ghost.Ghost) (board.Direction, bool) {
	switch g.Archetype() {
	case ghost.Blinky:
		return c.blinky(g)
	case ghost.Pinky:
		return c.ahead(g, false)
	case ghost.Inky:
		return c.ahead(g, true)
	case ghost.Clyde:
		return c.clyde(g)
	}
	return 0, false
}

// blinky heads straight for the player.
func (c *Chase) blinky(g *ghost.Ghost) (board.Direction, bool) {
	p := ai.FindNearest(board.KindPlayer, g.Square())
	if p == nil {
		return g.RandomMove()
	}
	return NextDirectionToward(g, p.Square())
}

// ahead targets the square lookAhead steps in front of the player (Pinky)
// or behind it (Inky). The offset is not clipped: it may leave the board
// or land in a wall, in which case the path search fails and the ghost
// wanders randomly.
func (c *Chase) ahead(g *ghost.Ghost, behind bool) (board.Direction, bool) {
	p := ai.FindNearest(board.KindPlayer, g.Square())
	if p == nil {
		return g.RandomMove()
	}
	d := p.Direction()
	if behind {
		d = d.Opposite()
	}
	return NextDirectionToward(g, offset(p.Square(), d, lookAhead))
}

// clyde chases from afar and flees up close, so it hovers around the
// shyDistance boundary.
func (c *Chase) clyde(g *ghost.Ghost) (board.Direction, bool) {
	p := ai.FindNearest(board.KindPlayer, g.Square())
	if p == nil {
		return g.RandomMove()
	}
	path := ai.ShortestPath(g.Square(), p.Square(), g)
	if len(path) == 0 {
		return g.RandomMove()
	}
	if len(path) <= shyDistance {
		return path[0].Opposite(), true
	}
	return path[0], true
}

func offset(sq *board.Square, d board.Direction, n int) *board.Square {
	for i := 0; i < n; i++ {
		sq = sq.SquareAt(d)
	}
	return sq
}
