package monitor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-scope-monitor/internal/util"
)

// Pool runs the file monitors of one loaded file set
type Pool struct {
	queue *Queue

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	monitors map[string]*FileMonitor
	watcher  *FileWatcher
	enabled  atomic.Bool
}

// NewPool creates an idle pool feeding queue
func NewPool(queue *Queue) *Pool {
	return &Pool{queue: queue}
}

// Start launches one monitor per state. Any running monitors are stopped first.
// Watching is best effort: without it monitors still poll.
func (p *Pool) Start(ctx context.Context, states []*TailState, opts Options) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.monitors = make(map[string]*FileMonitor, len(states))
	p.enabled.Store(true)

	paths := make([]string, 0, len(states))
	for _, state := range states {
		m := NewFileMonitor(state, p.queue, opts, p.enabled.Load)
		p.monitors[state.Path] = m
		paths = append(paths, state.Path)

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = m.Run(ctx)
		}()
	}

	if len(paths) == 0 {
		return
	}
	watcher, err := NewFileWatcher(paths)
	if err != nil {
		util.LogWarn("File watcher unavailable, polling only", util.F("error", err.Error()))
		return
	}
	p.watcher = watcher

	monitors := p.monitors
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events():
				if !ok {
					return
				}
				if m, found := monitors[event.Path]; found {
					m.Wake()
				}
			}
		}
	}()

	util.LogInfo("File monitors started", util.F("files", len(states)), util.F("generation", opts.Generation))
}

// Stop disables every monitor and waits for them to exit
func (p *Pool) Stop() {
	p.mu.Lock()
	p.enabled.Store(false)
	cancel := p.cancel
	watcher := p.watcher
	p.cancel = nil
	p.watcher = nil
	p.monitors = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		_ = watcher.Close()
	}
	p.wg.Wait()
}

// Running reports the number of monitors of the current file set
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.monitors)
}
