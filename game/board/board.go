package board

import "errors"

var (
	ErrInvalidDimensions = errors.New("board: width and height must be positive")
	ErrTileCount         = errors.New("board: tile count does not match width*height")
	ErrUnknownDirection  = errors.New("board: unknown direction")
)

// Tile is the static terrain of a square.
type Tile int

const (
	Floor Tile = iota
	Wall
	Gate // ghost-house door, ghosts only
)

// Kind identifies what a unit is for accessibility and nearest-unit queries.
type Kind int

const (
	KindPlayer Kind = iota
	KindGhost
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindGhost:
		return "ghost"
	}
	return "unknown"
}

// Unit is anything that occupies a square and faces a direction.
type Unit interface {
	Kind() Kind
	Square() *Square
	Direction() Direction
}

// Square is a single addressable cell of a Board.
// Squares are created once per board, so pointer equality is position equality.
type Square struct {
	x, y      int
	tile      Tile
	board     *Board
	occupants []Unit
}

func (s *Square) X() int     { return s.x }
func (s *Square) Y() int     { return s.y }
func (s *Square) Tile() Tile { return s.tile }

// SquareAt returns the neighbor in direction d, or nil beyond the edge of a
// non-wrapping board. A nil receiver yields nil so offsets can be chained.
func (s *Square) SquareAt(d Direction) *Square {
	if s == nil || !d.Valid() {
		return nil
	}
	dx, dy := d.Delta()
	return s.board.neighbor(s.x+dx, s.y+dy)
}

// IsAccessibleTo reports whether u may enter this square.
func (s *Square) IsAccessibleTo(u Unit) bool {
	if s == nil || u == nil {
		return false
	}
	switch s.tile {
	case Floor:
		return true
	case Gate:
		return u.Kind() == KindGhost
	}
	return false
}

// Occupants returns a copy of the units currently on this square.
func (s *Square) Occupants() []Unit {
	out := make([]Unit, len(s.occupants))
	copy(out, s.occupants)
	return out
}

func (s *Square) put(u Unit) {
	s.occupants = append(s.occupants, u)
}

func (s *Square) remove(u Unit) {
	for i, o := range s.occupants {
		if o == u {
			s.occupants = append(s.occupants[:i], s.occupants[i+1:]...)
			return
		}
	}
}

// Occupant holds the position and facing shared by every unit type.
// Embed it and call Occupy with the embedding unit as self.
type Occupant struct {
	square    *Square
	direction Direction
}

func (o *Occupant) Square() *Square      { return o.square }
func (o *Occupant) Direction() Direction { return o.direction }

// SetDirection changes the facing without moving.
func (o *Occupant) SetDirection(d Direction) {
	o.direction = d
}

// Occupy moves self from its current square (if any) onto target.
// A nil target only removes the unit from the board.
func (o *Occupant) Occupy(self Unit, target *Square) {
	if o.square != nil {
		o.square.remove(self)
	}
	o.square = target
	if target != nil {
		target.put(self)
	}
}

// Option configures a Board.
type Option func(*Board)

// WithWrap connects opposite edges, as in tunnel mazes.
func WithWrap() Option {
	return func(b *Board) { b.wrap = true }
}

// Board is a rectangular grid of squares. Terrain is fixed after New;
// only unit occupancy changes.
type Board struct {
	width, height int
	wrap          bool
	squares       []*Square // row-major
}

// New builds a width*height board from row-major tiles.
func New(width, height int, tiles []Tile, opts ...Option) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(tiles) != width*height {
		return nil, ErrTileCount
	}
	b := &Board{width: width, height: height}
	for _, opt := range opts {
		opt(b)
	}
	b.squares = make([]*Square, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			b.squares[i] = &Square{x: x, y: y, tile: tiles[i], board: b}
		}
	}
	return b, nil
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }
func (b *Board) Wraps() bool { return b.wrap }

// SquareAt returns the square at (x, y), or nil when out of range.
func (b *Board) SquareAt(x, y int) *Square {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return nil
	}
	return b.squares[y*b.width+x]
}

func (b *Board) neighbor(x, y int) *Square {
	if b.wrap {
		x = (x%b.width + b.width) % b.width
		y = (y%b.height + b.height) % b.height
	}
	return b.SquareAt(x, y)
}
