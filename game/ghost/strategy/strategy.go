// Package strategy decides, once per tick, which way each ghost moves.
//
// A Strategy is built once per board and shared by every ghost; all
// per-ghost state lives on the ghost itself. Absence of a move is reported
// as ok == false and means "stay put this tick", never an error.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/ghostai/game/ai"
	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
)

var ErrUnknownMode = errors.New("strategy: unknown mode")

// Mode names a strategy.
type Mode string

const (
	ModeChase   Mode = "chase"
	ModeScatter Mode = "scatter"
)

// ParseMode accepts "chase" or "scatter", case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeChase, ModeScatter:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Strategy computes the next direction for a ghost.
type Strategy interface {
	Move(g *ghost.Ghost) (board.Direction, bool)
}

// Grid is the part of a board strategies need.
type Grid interface {
	SquareAt(x, y int) *board.Square
	Width() int
	Height() int
}

// NextDirectionToward returns the first step of the shortest path from the
// ghost to target, or a random accessible direction when there is no path
// (including a nil target or the ghost already standing on it).
func NextDirectionToward(g *ghost.Ghost, target *board.Square) (board.Direction, bool) {
	if path := ai.ShortestPath(g.Square(), target, g); len(path) > 0 {
		return path[0], true
	}
	return g.RandomMove()
}

// Factory holds the strategies bound to one board.
type Factory struct {
	strategies map[Mode]Strategy
}

// NewFactory builds the chase and scatter strategies for grid.
func NewFactory(grid Grid, opts ...ScatterOption) *Factory {
	return &Factory{
		strategies: map[Mode]Strategy{
			ModeChase:   NewChase(),
			ModeScatter: NewScatter(grid, opts...),
		},
	}
}

// Strategies returns the mode → strategy mapping. The map is a copy; the
// strategies are shared.
func (f *Factory) Strategies() map[Mode]Strategy {
	out := make(map[Mode]Strategy, len(f.strategies))
	for k, v := range f.strategies {
		out[k] = v
	}
	return out
}

// Get returns the strategy for mode.
func (f *Factory) Get(m Mode) (Strategy, bool) {
	s, ok := f.strategies[m]
	return s, ok
}
