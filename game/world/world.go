package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/game/ghost/strategy"
	"github.com/kasuganosora/ghostai/hook"
	"github.com/kasuganosora/ghostai/model"
	"github.com/kasuganosora/ghostai/resource"
	"github.com/kasuganosora/ghostai/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrRoomNotFound = errors.New("world: room not found")
	ErrTooManyRooms = errors.New("world: room limit reached")
)

// Options configures every room a WorldManager creates.
type Options struct {
	TickInterval  time.Duration
	Phases        []Phase // empty = DefaultPhases
	LegacyArrival bool
	Seed          int64 // used when Create gets 0; 0 here means time based
	MaxRooms      int   // 0 = unlimited
	JournalMoves  bool
	SnapshotTTL   time.Duration
	RoomLifetime  time.Duration // 0 = rooms live until destroyed
	Hooks         *hook.Center  // shared by every room; may be nil
}

// WorldManager owns all active rooms and drives their ticks through the
// scheduler.
type WorldManager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	loader  *resource.Loader
	sched   *scheduler.Scheduler
	opts    Options
	db      *gorm.DB
	journal Journal
	cache   cache.Cache
	pubsub  cache.PubSub
	logger  *zap.Logger
}

// NewWorldManager creates a new WorldManager. db, journal, c and ps may be nil.
func NewWorldManager(
	loader *resource.Loader,
	sched *scheduler.Scheduler,
	opts Options,
	db *gorm.DB,
	journal Journal,
	c cache.Cache,
	ps cache.PubSub,
	logger *zap.Logger,
) *WorldManager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 200 * time.Millisecond
	}
	if len(opts.Phases) == 0 {
		opts.Phases = DefaultPhases()
	}
	return &WorldManager{
		rooms:   make(map[string]*Room),
		loader:  loader,
		sched:   sched,
		opts:    opts,
		db:      db,
		journal: journal,
		cache:   c,
		pubsub:  ps,
		logger:  logger,
	}
}

func tickerName(roomID string) string { return "room:" + roomID }
func expiryName(roomID string) string { return "expire:" + roomID }

// Create opens a room on the named board and starts ticking it.
// seed 0 falls back to the configured seed, then to the clock.
func (wm *WorldManager) Create(boardName string, seed int64) (*Room, error) {
	room, err := wm.build(boardName, seed)
	if err != nil {
		return nil, err
	}

	wm.mu.Lock()
	if wm.opts.MaxRooms > 0 && len(wm.rooms) >= wm.opts.MaxRooms {
		wm.mu.Unlock()
		return nil, ErrTooManyRooms
	}
	wm.rooms[room.ID] = room
	wm.mu.Unlock()

	if wm.db != nil {
		rec := &model.Room{ID: room.ID, Board: room.Board, Seed: room.Seed, CreatedAt: room.CreatedAt}
		if err := wm.db.Create(rec).Error; err != nil {
			wm.logger.Warn("room record write failed", zap.String("room_id", room.ID), zap.Error(err))
		}
	}
	if wm.sched != nil {
		wm.sched.AddTicker(tickerName(room.ID), wm.opts.TickInterval, func() {
			room.Tick(context.Background())
		})
		if wm.opts.RoomLifetime > 0 {
			id := room.ID
			wm.sched.AddDelay(expiryName(id), wm.opts.RoomLifetime, func() {
				if err := wm.Destroy(id); err == nil {
					wm.logger.Info("room expired", zap.String("room_id", id))
				}
			})
		}
	}
	wm.logger.Info("room created",
		zap.String("room_id", room.ID),
		zap.String("board", room.Board),
		zap.Int64("seed", room.Seed))
	return room, nil
}

// build assembles a room without registering it.
func (wm *WorldManager) build(boardName string, seed int64) (*Room, error) {
	if seed == 0 {
		seed = wm.opts.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	lvl, err := wm.loader.NewLevel(boardName, seed)
	if err != nil {
		return nil, err
	}
	schedule, err := NewSchedule(wm.opts.Phases, wm.opts.TickInterval)
	if err != nil {
		return nil, err
	}
	var scatterOpts []strategy.ScatterOption
	if wm.opts.LegacyArrival {
		scatterOpts = append(scatterOpts, strategy.WithLegacyArrival())
	}
	factory := strategy.NewFactory(lvl.Board, scatterOpts...)

	return NewRoom(uuid.NewString(), lvl, seed, schedule, factory, RoomDeps{
		Journal:      wm.journal,
		JournalMoves: wm.opts.JournalMoves,
		Cache:        wm.cache,
		PubSub:       wm.pubsub,
		SnapshotTTL:  wm.opts.SnapshotTTL,
		Hooks:        wm.opts.Hooks,
		Logger:       wm.logger,
	}), nil
}

// Get returns the room with id.
func (wm *WorldManager) Get(id string) (*Room, error) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	room, ok := wm.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return room, nil
}

// List returns all rooms, oldest first.
func (wm *WorldManager) List() []*Room {
	wm.mu.RLock()
	rooms := make([]*Room, 0, len(wm.rooms))
	for _, r := range wm.rooms {
		rooms = append(rooms, r)
	}
	wm.mu.RUnlock()
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// Destroy stops and removes a room.
func (wm *WorldManager) Destroy(id string) error {
	wm.mu.Lock()
	room, ok := wm.rooms[id]
	if ok {
		delete(wm.rooms, id)
	}
	wm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	wm.close(room)
	wm.logger.Info("room destroyed", zap.String("room_id", id), zap.Int64("ticks", room.Ticks()))
	return nil
}

// ActiveRoomCount returns the number of active rooms.
func (wm *WorldManager) ActiveRoomCount() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.rooms)
}

// StopAll stops all active rooms (used at server shutdown).
func (wm *WorldManager) StopAll() {
	wm.mu.Lock()
	rooms := make([]*Room, 0, len(wm.rooms))
	for _, r := range wm.rooms {
		rooms = append(rooms, r)
	}
	wm.rooms = make(map[string]*Room)
	wm.mu.Unlock()
	for _, r := range rooms {
		wm.close(r)
	}
}

func (wm *WorldManager) close(room *Room) {
	if wm.sched != nil {
		wm.sched.Remove(tickerName(room.ID))
		wm.sched.Remove(expiryName(room.ID))
	}
	if wm.cache != nil {
		_ = wm.cache.Del(context.Background(), SnapshotKey(room.ID), EventsKey(room.ID))
	}
	if wm.db != nil {
		now := time.Now()
		err := wm.db.Model(&model.Room{}).Where("id = ?", room.ID).
			Updates(map[string]interface{}{"closed_at": now, "ticks": room.Ticks()}).Error
		if err != nil {
			wm.logger.Warn("room record close failed", zap.String("room_id", room.ID), zap.Error(err))
		}
	}
}

// Boards returns the names of the boards rooms can be created on.
func (wm *WorldManager) Boards() []string {
	return wm.loader.Names()
}
