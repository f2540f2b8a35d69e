package resource

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
	"github.com/kasuganosora/ghostai/game/player"
)

var (
	ErrEmptyLayout      = errors.New("resource: empty layout")
	ErrRaggedLayout     = errors.New("resource: layout rows differ in width")
	ErrUnknownTile      = errors.New("resource: unknown tile character")
	ErrUnknownDirective = errors.New("resource: unknown layout directive")
	ErrNoPlayer         = errors.New("resource: layout has no player start")
	ErrDuplicatePlayer  = errors.New("resource: layout has more than one player start")
	ErrUnknownBoard     = errors.New("resource: unknown board")
)

// ---- Layout format ----
//
//	#      wall
//	-      gate (ghosts only)
//	. ' '  floor
//	P      player start
//	G      ghost start; archetypes assigned Blinky, Pinky, Inky, Clyde in
//	       reading order, cycling
//	B K I C explicit Blinky, Pinky (K), Inky, Clyde
//
// Leading lines starting with '@' are directives. "@wrap" connects
// opposite edges. Trailing blank lines are ignored.

const directivePrefix = "@"

var explicitGhosts = map[rune]ghost.Archetype{
	'B': ghost.Blinky,
	'K': ghost.Pinky,
	'I': ghost.Inky,
	'C': ghost.Clyde,
}

// Level is a parsed board with its units placed on their start squares.
type Level struct {
	Name   string
	Board  *board.Board
	Player *player.Player
	Ghosts []*ghost.Ghost
}

// ParseLevel builds a Level from layout lines. Each ghost gets its own
// random source derived from rng, so a fixed seed replays the same game.
// opts are applied in addition to any layout directives.
func ParseLevel(name string, lines []string, rng *rand.Rand, opts ...board.Option) (*Level, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rows, dirOpts, err := splitLayout(lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	opts = append(dirOpts, opts...)

	width, height := len([]rune(rows[0])), len(rows)
	tiles := make([]board.Tile, 0, width*height)

	type start struct {
		x, y      int
		archetype ghost.Archetype
	}
	var (
		playerAt  *start
		ghostsAt  []start
		autoGhost int
	)

	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("%s: row %d has width %d, want %d: %w", name, y, len(runes), width, ErrRaggedLayout)
		}
		for x, c := range runes {
			tile := board.Floor
			switch c {
			case '#':
				tile = board.Wall
			case '-':
				tile = board.Gate
			case '.', ' ':
			case 'P':
				if playerAt != nil {
					return nil, fmt.Errorf("%s: (%d,%d): %w", name, x, y, ErrDuplicatePlayer)
				}
				playerAt = &start{x: x, y: y}
			case 'G':
				a := ghost.Archetypes[autoGhost%len(ghost.Archetypes)]
				autoGhost++
				ghostsAt = append(ghostsAt, start{x: x, y: y, archetype: a})
			default:
				a, ok := explicitGhosts[c]
				if !ok {
					return nil, fmt.Errorf("%s: %q at (%d,%d): %w", name, c, x, y, ErrUnknownTile)
				}
				ghostsAt = append(ghostsAt, start{x: x, y: y, archetype: a})
			}
			tiles = append(tiles, tile)
		}
	}
	if playerAt == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoPlayer)
	}

	b, err := board.New(width, height, tiles, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	lvl := &Level{Name: name, Board: b, Player: player.New()}
	lvl.Player.Occupy(b.SquareAt(playerAt.x, playerAt.y))
	for _, s := range ghostsAt {
		g := ghost.New(s.archetype, rand.New(rand.NewSource(rng.Int63())))
		g.Occupy(b.SquareAt(s.x, s.y))
		lvl.Ghosts = append(lvl.Ghosts, g)
	}
	return lvl, nil
}

// splitLayout separates leading directives from grid rows.
func splitLayout(lines []string) ([]string, []board.Option, error) {
	var opts []board.Option
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, directivePrefix) {
			break
		}
		switch strings.TrimPrefix(line, directivePrefix) {
		case "wrap":
			opts = append(opts, board.WithWrap())
		default:
			return nil, nil, fmt.Errorf("%q: %w", line, ErrUnknownDirective)
		}
	}

	rows := make([]string, 0, len(lines)-i)
	for _, line := range lines[i:] {
		rows = append(rows, strings.TrimRight(line, "\r"))
	}
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyLayout
	}
	return rows, opts, nil
}
