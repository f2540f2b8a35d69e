package audit

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kasuganosora/ghostai/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize     = 4096
	batchSize     = 200
	flushInterval = 2 * time.Second
)

// MoveEntry is one ghost decision to be journaled.
type MoveEntry struct {
	RoomID    string
	Tick      int64
	Mode      string
	Ghost     string
	FromX     int
	FromY     int
	Direction string
	Moved     bool
	Home      bool
	Detail    interface{}
}

// ModeEntry is one mode switch to be journaled.
type ModeEntry struct {
	RoomID string
	Tick   int64
	From   string
	To     string
	Reason string
}

// Service writes journal entries asynchronously in batches.
type Service struct {
	db     *gorm.DB
	ch     chan interface{}
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// Stats are journal counters since the service started.
type Stats struct {
	Queued  int   `json:"queued"`
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
	Failed  int64 `json:"failed"`
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan interface{}, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// LogMove enqueues a ghost decision for async DB write.
func (svc *Service) LogMove(entry MoveEntry) {
	detail, _ := json.Marshal(entry.Detail)
	svc.enqueue(&model.GhostMove{
		RoomID:    entry.RoomID,
		Tick:      entry.Tick,
		Mode:      entry.Mode,
		Ghost:     entry.Ghost,
		FromX:     entry.FromX,
		FromY:     entry.FromY,
		Direction: entry.Direction,
		Moved:     entry.Moved,
		Home:      entry.Home,
		Detail:    datatypes.JSON(detail),
	}, "move")
}

// LogModeChange enqueues a mode switch for async DB write.
func (svc *Service) LogModeChange(entry ModeEntry) {
	svc.enqueue(&model.ModeChange{
		RoomID: entry.RoomID,
		Tick:   entry.Tick,
		From:   entry.From,
		To:     entry.To,
		Reason: entry.Reason,
	}, "mode")
}

func (svc *Service) enqueue(record interface{}, kind string) {
	select {
	case <-svc.stopCh:
		return
	default:
	}
	select {
	case svc.ch <- record:
	default:
		svc.dropped.Add(1)
		svc.logger.Warn("journal channel full, dropping entry", zap.String("kind", kind))
	}
}

// Stats returns the current journal counters.
func (svc *Service) Stats() Stats {
	return Stats{
		Queued:  len(svc.ch),
		Written: svc.written.Load(),
		Dropped: svc.dropped.Load(),
		Failed:  svc.failed.Load(),
	}
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	moves := make([]*model.GhostMove, 0, batchSize)
	modes := make([]*model.ModeChange, 0, 16)

	flush := func() {
		if len(moves) > 0 {
			if err := svc.db.Create(&moves).Error; err != nil {
				svc.failed.Add(int64(len(moves)))
				svc.logger.Error("journal move batch write failed", zap.Int("count", len(moves)), zap.Error(err))
			} else {
				svc.written.Add(int64(len(moves)))
			}
			moves = moves[:0]
		}
		if len(modes) > 0 {
			if err := svc.db.Create(&modes).Error; err != nil {
				svc.failed.Add(int64(len(modes)))
				svc.logger.Error("journal mode batch write failed", zap.Int("count", len(modes)), zap.Error(err))
			} else {
				svc.written.Add(int64(len(modes)))
			}
			modes = modes[:0]
		}
	}
	add := func(record interface{}) {
		switch r := record.(type) {
		case *model.GhostMove:
			moves = append(moves, r)
		case *model.ModeChange:
			modes = append(modes, r)
		}
	}

	for {
		select {
		case record := <-svc.ch:
			add(record)
			if len(moves)+len(modes) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case record := <-svc.ch:
					add(record)
				default:
					flush()
					return
				}
			}
		}
	}
}
