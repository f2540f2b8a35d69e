package strategy

import (
	"math/rand"
	"testing"

	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openField is 9x5 floor with no walls.
func openField(t *testing.T) *board.Board {
	t.Helper()
	return newBoard(t,
		".........",
		".........",
		".........",
		".........",
		".........",
	)
}

func TestChase_Blinky(t *testing.T) {
	b := newBoard(t,
		"#######",
		"#.....#",
		"#######",
	)
	g := spawnGhost(b, ghost.Blinky, 1, 1, 1)
	spawnPlayer(b, 5, 1, board.West)

	d, ok := NewChase().Move(g)
	require.True(t, ok)
	assert.Equal(t, board.East, d)
}

func TestChase_BlinkyIgnoresOtherGhosts(t *testing.T) {
	b := openField(t)
	g := spawnGhost(b, ghost.Blinky, 3, 0, 1)
	spawnGhost(b, ghost.Pinky, 4, 0, 1)
	spawnPlayer(b, 1, 2, board.East)

	d, ok := NewChase().Move(g)
	require.True(t, ok)
	assert.Equal(t, board.South, d)
}

func TestChase_PinkyTargetsAhead(t *testing.T) {
	b := openField(t)
	// Player at (1,2) facing east: target is (5,2).
	spawnPlayer(b, 1, 2, board.East)
	pinky := spawnGhost(b, ghost.Pinky, 3, 0, 1)
	blinky := spawnGhost(b, ghost.Blinky, 3, 0, 1)

	c := NewChase()
	d, ok := c.Move(pinky)
	require.True(t, ok)
	assert.Equal(t, board.East, d)

	// Blinky from the same square heads for the player instead.
	d, ok = c.Move(blinky)
	require.True(t, ok)
	assert.Equal(t, board.South, d)
}

func TestChase_InkyTargetsBehind(t *testing.T) {
	b := openField(t)
	// Player at (5,2) facing east: target is (1,2).
	spawnPlayer(b, 5, 2, board.East)
	inky := spawnGhost(b, ghost.Inky, 3, 0, 1)
	blinky := spawnGhost(b, ghost.Blinky, 3, 0, 1)

	c := NewChase()
	d, ok := c.Move(inky)
	require.True(t, ok)
	assert.Equal(t, board.South, d)

	d, ok = c.Move(blinky)
	require.True(t, ok)
	assert.Equal(t, board.East, d)
}

func TestChase_OffsetOffBoardFallsBackToRandom(t *testing.T) {
	cases := []struct {
		name   string
		a      ghost.Archetype
		facing board.Direction
	}{
		{"pinky ahead off east edge", ghost.Pinky, board.East},
		{"inky behind off east edge", ghost.Inky, board.West},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := openField(t)
			spawnPlayer(b, 6, 2, tc.facing)
			g := spawnGhost(b, tc.a, 3, 3, 42)
			twin := ghost.New(tc.a, rand.New(rand.NewSource(42)))
			twin.Occupy(b.SquareAt(3, 3))

			want, wantOK := twin.RandomMove()
			got, ok := NewChase().Move(g)
			assert.Equal(t, wantOK, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestChase_OffsetIntoWallFallsBackToRandom(t *testing.T) {
	b := newBoard(t,
		"#########",
		"#.......#",
		"#########",
	)
	// Four squares west of (4,1) is the border wall.
	spawnPlayer(b, 4, 1, board.West)
	g := spawnGhost(b, ghost.Inky, 6, 1, 9)
	twin := ghost.New(ghost.Inky, rand.New(rand.NewSource(9)))
	twin.Occupy(b.SquareAt(6, 1))

	// Inky looks behind (east), which is (8,1): also the wall.
	want, _ := twin.RandomMove()
	got, ok := NewChase().Move(g)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestChase_ClydeShyThreshold(t *testing.T) {
	row := "............"
	b := newBoard(t, row)
	spawnPlayer(b, 0, 0, board.East)
	c := NewChase()

	// Exactly shyDistance away: flee.
	near := spawnGhost(b, ghost.Clyde, 8, 0, 1)
	d, ok := c.Move(near)
	require.True(t, ok)
	assert.Equal(t, board.East, d)

	// One step further: chase.
	far := spawnGhost(b, ghost.Clyde, 9, 0, 1)
	d, ok = c.Move(far)
	require.True(t, ok)
	assert.Equal(t, board.West, d)

	// Adjacent: flee.
	adjacent := spawnGhost(b, ghost.Clyde, 1, 0, 1)
	d, ok = c.Move(adjacent)
	require.True(t, ok)
	assert.Equal(t, board.East, d)
}

func TestChase_ClydeNoPathIsRandom(t *testing.T) {
	b := newBoard(t,
		"#####",
		"#.#.#",
		"#.###",
	)
	spawnPlayer(b, 3, 1, board.East)
	g := spawnGhost(b, ghost.Clyde, 1, 1, 5)

	d, ok := NewChase().Move(g)
	require.True(t, ok)
	assert.Equal(t, board.South, d)
}

func TestChase_NoPlayerIsRandom(t *testing.T) {
	b := newBoard(t,
		"###",
		"#.#",
		"#.#",
	)
	for _, a := range ghost.Archetypes {
		g := spawnGhost(b, a, 1, 1, 1)
		d, ok := NewChase().Move(g)
		require.True(t, ok, a.String())
		assert.Equal(t, board.South, d, a.String())
		g.Occupy(nil)
	}
}

func TestChase_UnknownArchetype(t *testing.T) {
	b := openField(t)
	spawnPlayer(b, 1, 1, board.East)
	g := spawnGhost(b, ghost.Archetype(9), 4, 4, 1)

	_, ok := NewChase().Move(g)
	assert.False(t, ok)
	assert.Same(t, b.SquareAt(4, 4), g.Square())
}

func TestChase_Idempotent(t *testing.T) {
	b := openField(t)
	spawnPlayer(b, 4, 2, board.East)
	c := NewChase()
	for _, a := range ghost.Archetypes {
		g := spawnGhost(b, a, 7, 4, 1)
		first, ok1 := c.Move(g)
		second, ok2 := c.Move(g)
		assert.Equal(t, ok1, ok2, a.String())
		assert.Equal(t, first, second, a.String())
		assert.Equal(t, board.North, g.Direction(), "move must not turn the ghost")
		g.Occupy(nil)
	}
}
