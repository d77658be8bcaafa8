package ui

import (
	"sync"
	"time"

	"github.com/rivo/tview"
)

// drawScheduler coalesces keyed UI updates and caps the draw rate. Several
// updates for the same key within one frame collapse to the latest one, so
// a fast tick loop can schedule freely without flooding tview's queue.
type drawScheduler struct {
	app       *tview.Application
	mu        sync.Mutex
	pending   map[string]func()
	frameTime time.Duration
	quit      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

func newDrawScheduler(app *tview.Application, targetFPS int) *drawScheduler {
	if targetFPS <= 0 {
		targetFPS = 30
	}
	return &drawScheduler{
		app:       app,
		pending:   make(map[string]func()),
		frameTime: time.Second / time.Duration(targetFPS),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (s *drawScheduler) Start() {
	go s.run()
}

// Stop flushes anything still pending and shuts the loop down. Safe to call
// more than once.
func (s *drawScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	select {
	case <-s.done:
	case <-time.After(100 * time.Millisecond):
	}
}

// Schedule records fn to run on the UI goroutine at the next frame,
// replacing any update previously scheduled under the same id.
func (s *drawScheduler) Schedule(id string, fn func()) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pending[id] = fn
	s.mu.Unlock()
}

func (s *drawScheduler) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.frameTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.quit:
			s.flush()
			return
		}
	}
}

func (s *drawScheduler) flush() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := make([]func(), 0, len(s.pending))
	for _, fn := range s.pending {
		batch = append(batch, fn)
	}
	clear(s.pending)
	s.mu.Unlock()

	run := func() {
		for _, fn := range batch {
			fn()
		}
	}
	if s.app == nil {
		run()
		return
	}
	s.app.QueueUpdateDraw(run)
}
