package player

import (
	"sync"

	"github.com/kasuganosora/ghostai/game/board"
)

// Player is the unit ghosts chase. Steering input may arrive from HTTP
// handlers while the room ticks, so the desired direction is guarded.
type Player struct {
	board.Occupant

	mu      sync.Mutex
	desired board.Direction
	steered bool
}

// New creates a player facing east, the classic starting heading.
func New() *Player {
	p := &Player{}
	p.SetDirection(board.East)
	return p
}

// Kind implements board.Unit.
func (p *Player) Kind() board.Kind { return board.KindPlayer }

// Occupy moves the player onto target.
func (p *Player) Occupy(target *board.Square) {
	p.Occupant.Occupy(p, target)
}

// Steer records the direction the player wants to take next.
func (p *Player) Steer(d board.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.desired = d
	p.steered = true
}

// Step advances the player one tick: turn to the steered direction if that
// square is open, then move forward if possible. Returns true if it moved.
func (p *Player) Step() bool {
	sq := p.Square()
	if sq == nil {
		return false
	}
	p.mu.Lock()
	desired, steered := p.desired, p.steered
	p.mu.Unlock()

	if steered && sq.SquareAt(desired).IsAccessibleTo(p) {
		p.SetDirection(desired)
	}
	next := sq.SquareAt(p.Direction())
	if !next.IsAccessibleTo(p) {
		return false
	}
	p.Occupy(next)
	return true
}
