package board

import (
	"fmt"
	"strings"
)

// Direction is one of the four cardinal directions a unit can face or move.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions is the canonical enumeration order.
// Path search breaks ties in this order and random moves enumerate it.
var Directions = [4]Direction{North, East, South, West}

// dx/dy per direction, screen coordinates (y grows downward).
var deltas = [4][2]int{
	{0, -1}, // North
	{1, 0},  // East
	{0, 1},  // South
	{-1, 0}, // West
}

// Opposite returns N<->S, E<->W.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Right returns the clockwise rotation: N→E→S→W→N.
func (d Direction) Right() Direction {
	return (d + 1) % 4
}

// Left returns the counter-clockwise rotation: N→W→S→E→N.
func (d Direction) Left() Direction {
	return (d + 3) % 4
}

// Delta returns the x/y offset of one step in direction d.
func (d Direction) Delta() (dx, dy int) {
	if !d.Valid() {
		return 0, 0
	}
	return deltas[d][0], deltas[d][1]
}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// MarshalText encodes the direction by name for JSON payloads.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("board: invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection parses a direction name ("north", "N", "up", ...), case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "east", "e", "right":
		return East, nil
	case "south", "s", "down":
		return South, nil
	case "west", "w", "left":
		return West, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}
