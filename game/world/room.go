package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kasuganosora/ghostai/audit"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
	"github.com/kasuganosora/ghostai/game/ghost/strategy"
	"github.com/kasuganosora/ghostai/hook"
	"github.com/kasuganosora/ghostai/resource"
	"go.uber.org/zap"
)

const (
	eventFeedLen = 50

	reasonSchedule = "schedule"
	reasonAdmin    = "admin"
)

// Journal receives every decision a room makes. *audit.Service satisfies it.
type Journal interface {
	LogMove(audit.MoveEntry)
	LogModeChange(audit.ModeEntry)
}

// Channel is the pub/sub channel a room publishes snapshots on.
func Channel(roomID string) string { return "room:" + roomID }

// SnapshotKey is the cache key holding a room's latest snapshot.
func SnapshotKey(roomID string) string { return "room:" + roomID + ":snapshot" }

// EventsKey is the cache list holding a room's recent mode changes, newest first.
func EventsKey(roomID string) string { return "room:" + roomID + ":events" }

// UnitView is the client-visible state of one unit.
type UnitView struct {
	Kind      string          `json:"kind"`
	Archetype string          `json:"archetype,omitempty"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Facing    board.Direction `json:"facing"`
	Home      bool            `json:"home,omitempty"`
}

// Snapshot is the state of a room after a tick.
type Snapshot struct {
	RoomID   string        `json:"room_id"`
	Board    string        `json:"board"`
	Tick     int64         `json:"tick"`
	Mode     strategy.Mode `json:"mode"`
	Forced   bool          `json:"forced"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Player   UnitView      `json:"player"`
	Ghosts   []UnitView    `json:"ghosts"`
	Captures int           `json:"captures"`
}

// ModeEvent is one entry of a room's event feed.
type ModeEvent struct {
	Tick   int64         `json:"tick"`
	From   strategy.Mode `json:"from"`
	To     strategy.Mode `json:"to"`
	Reason string        `json:"reason"`
	At     time.Time     `json:"at"`
}

// GhostDecision is the payload of hook.BeforeGhostMove. Handlers may
// rewrite Direction and OK; OK false makes the ghost hold its square.
type GhostDecision struct {
	RoomID    string
	Tick      int64
	Mode      strategy.Mode
	Archetype ghost.Archetype
	X, Y      int
	Direction board.Direction
	OK        bool
}

// RoomDeps are the collaborators a room reports to. Any may be nil.
type RoomDeps struct {
	Journal      Journal
	JournalMoves bool
	Cache        cache.Cache
	PubSub       cache.PubSub
	SnapshotTTL  time.Duration
	Hooks        *hook.Center
	Logger       *zap.Logger
}

// Room runs one level: a player, its ghosts, and the mode schedule.
// Tick is driven by the scheduler; HTTP handlers call Steer, SetMode and
// Snapshot concurrently.
type Room struct {
	ID        string
	Board     string
	Seed      int64
	CreatedAt time.Time

	mu       sync.Mutex
	level    *resource.Level
	factory  *strategy.Factory
	schedule *Schedule
	tick     int64
	mode     strategy.Mode // mode used on the last tick
	forced   strategy.Mode // admin override; empty when following the schedule
	captures int
	last     Snapshot

	deps   RoomDeps
	logger *zap.Logger
}

// NewRoom wires a parsed level to its strategies and schedule.
func NewRoom(id string, lvl *resource.Level, seed int64, schedule *Schedule, factory *strategy.Factory, deps RoomDeps) *Room {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Room{
		ID:        id,
		Board:     lvl.Name,
		Seed:      seed,
		CreatedAt: time.Now(),
		level:     lvl,
		factory:   factory,
		schedule:  schedule,
		deps:      deps,
		logger:    logger.With(zap.String("room_id", id), zap.String("board", lvl.Name)),
	}
	r.last = r.snapshotLocked()
	return r
}

// Tick advances the room by one step:
//  1. advance the schedule and resolve the active mode (override wins);
//  2. on entering scatter, clear every ghost's home flag;
//  3. step the player;
//  4. ask the active strategy for each ghost's move, in spawn order, and
//     apply it: turn to the direction, then step if the square is open.
//
// The resulting snapshot is journaled, cached and published.
func (r *Room) Tick(ctx context.Context) Snapshot {
	r.mu.Lock()
	r.tick++
	scheduled, _ := r.schedule.Advance()
	mode, reason := scheduled, reasonSchedule
	if r.forced != "" {
		mode, reason = r.forced, reasonAdmin
	}
	var event *ModeEvent
	if mode != r.mode {
		event = &ModeEvent{Tick: r.tick, From: r.mode, To: mode, Reason: reason, At: time.Now()}
		if mode == strategy.ModeScatter {
			for _, g := range r.level.Ghosts {
				g.ResetHome()
			}
		}
		r.mode = mode
	}

	r.level.Player.Step()

	s, ok := r.factory.Get(mode)
	var moves []audit.MoveEntry
	if ok {
		moves = make([]audit.MoveEntry, 0, len(r.level.Ghosts))
		for _, g := range r.level.Ghosts {
			moves = append(moves, r.moveGhost(ctx, s, g, mode))
		}
	} else {
		r.logger.Error("no strategy for mode", zap.String("mode", string(mode)))
	}

	caught := r.caughtLocked()
	if caught {
		r.captures++
	}
	snap := r.snapshotLocked()
	r.last = snap
	r.mu.Unlock()

	if event != nil {
		r.logger.Info("mode changed",
			zap.Int64("tick", event.Tick),
			zap.String("from", string(event.From)),
			zap.String("to", string(event.To)),
			zap.String("reason", event.Reason))
		r.recordEvent(ctx, *event)
		r.trigger(ctx, hook.OnModeChange, *event)
	}
	if caught {
		r.logger.Info("player caught", zap.Int64("tick", snap.Tick), zap.Int("captures", snap.Captures))
		r.trigger(ctx, hook.OnCapture, snap)
	}
	if r.deps.Journal != nil && r.deps.JournalMoves {
		for _, m := range moves {
			r.deps.Journal.LogMove(m)
		}
	}
	r.publish(ctx, snap)
	r.trigger(ctx, hook.AfterTick, snap)
	return snap
}

// trigger runs observer hooks; their results are ignored.
func (r *Room) trigger(ctx context.Context, event string, data interface{}) {
	if !r.deps.Hooks.Has(event) {
		return
	}
	if _, err := r.deps.Hooks.Trigger(ctx, event, data); err != nil && !errors.Is(err, hook.ErrInterrupt) {
		r.logger.Warn("room hook failed", zap.String("event", event), zap.Error(err))
	}
}

// moveGhost applies one strategy decision. Caller holds r.mu.
func (r *Room) moveGhost(ctx context.Context, s strategy.Strategy, g *ghost.Ghost, mode strategy.Mode) audit.MoveEntry {
	from := g.Square()
	entry := audit.MoveEntry{
		RoomID: r.ID,
		Tick:   r.tick,
		Mode:   string(mode),
		Ghost:  g.Archetype().String(),
	}
	if from != nil {
		entry.FromX, entry.FromY = from.X(), from.Y()
	}

	d, ok := s.Move(g)
	if r.deps.Hooks.Has(hook.BeforeGhostMove) {
		d, ok = r.hookDecision(ctx, GhostDecision{
			RoomID:    r.ID,
			Tick:      r.tick,
			Mode:      mode,
			Archetype: g.Archetype(),
			X:         entry.FromX,
			Y:         entry.FromY,
			Direction: d,
			OK:        ok,
		})
	}
	if ok {
		entry.Direction = d.String()
		g.SetDirection(d)
		if next := from.SquareAt(d); next.IsAccessibleTo(g) {
			g.Occupy(next)
			entry.Moved = true
		}
	}
	entry.Home = g.IsHome()
	entry.Detail = map[string]string{"facing": g.Direction().String()}
	return entry
}

func (r *Room) hookDecision(ctx context.Context, dec GhostDecision) (board.Direction, bool) {
	out, err := r.deps.Hooks.Trigger(ctx, hook.BeforeGhostMove, &dec)
	if errors.Is(err, hook.ErrInterrupt) {
		return dec.Direction, false
	}
	if err != nil {
		r.logger.Warn("ghost move hook failed", zap.Error(err))
	}
	if p, ok := out.(*GhostDecision); ok && p != nil {
		dec = *p
	}
	if dec.OK && !dec.Direction.Valid() {
		r.logger.Warn("ghost move hook returned invalid direction", zap.Int("direction", int(dec.Direction)))
		return dec.Direction, false
	}
	return dec.Direction, dec.OK
}

func (r *Room) caughtLocked() bool {
	sq := r.level.Player.Square()
	for _, g := range r.level.Ghosts {
		if g.Square() == sq {
			return true
		}
	}
	return false
}

func (r *Room) recordEvent(ctx context.Context, ev ModeEvent) {
	if r.deps.Journal != nil {
		r.deps.Journal.LogModeChange(audit.ModeEntry{
			RoomID: r.ID,
			Tick:   ev.Tick,
			From:   string(ev.From),
			To:     string(ev.To),
			Reason: ev.Reason,
		})
	}
	if r.deps.Cache == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	key := EventsKey(r.ID)
	if err := r.deps.Cache.LPush(ctx, key, string(data)); err != nil {
		r.logger.Warn("event feed push failed", zap.Error(err))
		return
	}
	if err := r.deps.Cache.LTrim(ctx, key, 0, eventFeedLen-1); err != nil {
		r.logger.Warn("event feed trim failed", zap.Error(err))
	}
}

func (r *Room) publish(ctx context.Context, snap Snapshot) {
	if r.deps.Cache == nil && r.deps.PubSub == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("snapshot marshal failed", zap.Error(err))
		return
	}
	if r.deps.Cache != nil {
		if err := r.deps.Cache.Set(ctx, SnapshotKey(r.ID), string(data), r.deps.SnapshotTTL); err != nil {
			r.logger.Warn("snapshot cache failed", zap.Error(err))
		}
	}
	if r.deps.PubSub != nil {
		if err := r.deps.PubSub.Publish(ctx, Channel(r.ID), string(data)); err != nil {
			r.logger.Warn("snapshot publish failed", zap.Error(err))
		}
	}
}

func (r *Room) snapshotLocked() Snapshot {
	b := r.level.Board
	snap := Snapshot{
		RoomID:   r.ID,
		Board:    r.Board,
		Tick:     r.tick,
		Mode:     r.mode,
		Forced:   r.forced != "",
		Width:    b.Width(),
		Height:   b.Height(),
		Player:   view(r.level.Player, ""),
		Ghosts:   make([]UnitView, 0, len(r.level.Ghosts)),
		Captures: r.captures,
	}
	for _, g := range r.level.Ghosts {
		v := view(g, g.Archetype().String())
		v.Home = g.IsHome()
		snap.Ghosts = append(snap.Ghosts, v)
	}
	return snap
}

func view(u board.Unit, archetype string) UnitView {
	v := UnitView{Kind: u.Kind().String(), Archetype: archetype, Facing: u.Direction(), X: -1, Y: -1}
	if sq := u.Square(); sq != nil {
		v.X, v.Y = sq.X(), sq.Y()
	}
	return v
}

// Snapshot returns the state after the most recent tick.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.last
	snap.Ghosts = append([]UnitView(nil), r.last.Ghosts...)
	return snap
}

// Ticks returns the number of ticks run so far.
func (r *Room) Ticks() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

// Mode returns the mode in effect: the override if set, else the mode of
// the last tick.
func (r *Room) Mode() (mode strategy.Mode, forced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forced != "" {
		return r.forced, true
	}
	return r.mode, false
}

// SetMode forces a mode from the next tick on, overriding the schedule.
// The schedule keeps running underneath.
func (r *Room) SetMode(m strategy.Mode) error {
	if _, ok := r.factory.Get(m); !ok {
		return fmt.Errorf("%w: %q", strategy.ErrUnknownMode, m)
	}
	r.mu.Lock()
	r.forced = m
	r.mu.Unlock()
	r.logger.Info("mode forced", zap.String("mode", string(m)))
	return nil
}

// ClearMode returns the room to its schedule.
func (r *Room) ClearMode() {
	r.mu.Lock()
	r.forced = ""
	r.mu.Unlock()
	r.logger.Info("mode override cleared")
}

// Steer queues a direction for the player.
func (r *Room) Steer(d board.Direction) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", board.ErrUnknownDirection, int(d))
	}
	r.level.Player.Steer(d)
	return nil
}

// Layout renders the board terrain as rows: '#' wall, '-' gate, '.' floor.
func (r *Room) Layout() []string {
	b := r.level.Board
	rows := make([]string, 0, b.Height())
	var sb strings.Builder
	for y := 0; y < b.Height(); y++ {
		sb.Reset()
		for x := 0; x < b.Width(); x++ {
			switch b.SquareAt(x, y).Tile() {
			case board.Wall:
				sb.WriteByte('#')
			case board.Gate:
				sb.WriteByte('-')
			default:
				sb.WriteByte('.')
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}
