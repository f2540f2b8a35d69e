package scheduler

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler runs named periodic and one-shot tasks. Rooms tick on
// tickers; room expiry is a delay. Registering a name again replaces the
// previous task of that kind.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	delays  map[string]*delayEntry
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	logger  *zap.Logger
}

type tickerEntry struct {
	interval time.Duration
	since    time.Time
	quit     chan struct{}
	runs     atomic.Int64
	panics   atomic.Int64
}

type delayEntry struct {
	timer *time.Timer
}

// TaskInfo describes a registered ticker.
type TaskInfo struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Since    time.Time     `json:"since"`
	Runs     int64         `json:"runs"`
	Panics   int64         `json:"panics"`
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]*tickerEntry),
		delays:  make(map[string]*delayEntry),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
}

// AddTicker runs fn every interval until removed or stopped. Runs never
// overlap; ticks missed while fn is busy are dropped.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Warn("scheduler stopped, ticker ignored", zap.String("task", name))
		return
	}
	if old, ok := s.tickers[name]; ok {
		close(old.quit)
	}
	e := &tickerEntry{interval: interval, since: time.Now(), quit: make(chan struct{})}
	s.tickers[name] = e
	s.wg.Add(1)
	go s.loop(name, e, fn)
	s.logger.Debug("scheduler task registered", zap.String("task", name), zap.Duration("interval", interval))
}

func (s *Scheduler) loop(name string, e *tickerEntry, fn TaskFn) {
	defer s.wg.Done()
	t := time.NewTicker(e.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			e.runs.Add(1)
			if !s.call(name, fn) {
				e.panics.Add(1)
			}
		case <-e.quit:
			return
		case <-s.stopCh:
			return
		}
	}
}

// call runs fn, reporting false if it panicked.
func (s *Scheduler) call(name string, fn TaskFn) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r),
				zap.Stack("stack"))
			ok = false
		}
	}()
	fn()
	return true
}

// AddDelay runs fn once after delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Warn("scheduler stopped, delay ignored", zap.String("task", name))
		return
	}
	if old, ok := s.delays[name]; ok {
		old.timer.Stop()
	}
	d := &delayEntry{}
	d.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		stopped := s.stopped
		// A replacement registered under the same name must survive.
		if s.delays[name] == d {
			delete(s.delays, name)
		}
		s.mu.Unlock()
		if !stopped {
			s.call(name, fn)
		}
	})
	s.delays[name] = d
}

// Remove cancels the ticker and the delay registered under name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tickers[name]; ok {
		close(e.quit)
		delete(s.tickers, name)
	}
	if d, ok := s.delays[name]; ok {
		d.timer.Stop()
		delete(s.delays, name)
	}
}

// Stop cancels every task and waits for running tickers to return.
// Later registrations are ignored. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	for name, d := range s.delays {
		d.timer.Stop()
		delete(s.delays, name)
	}
	s.tickers = make(map[string]*tickerEntry)
	s.mu.Unlock()
	s.wg.Wait()
}

// ListTickers returns the names of all registered tickers.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	return names
}

// Tasks describes every registered ticker, sorted by name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	out := make([]TaskInfo, 0, len(s.tickers))
	for name, e := range s.tickers {
		out = append(out, TaskInfo{
			Name:     name,
			Interval: e.interval,
			Since:    e.since,
			Runs:     e.runs.Load(),
			Panics:   e.panics.Load(),
		})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PendingDelays returns the number of delays not yet fired.
func (s *Scheduler) PendingDelays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}
