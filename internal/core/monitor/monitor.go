package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/constants"
	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// Options tunes a file monitor
type Options struct {
	Generation   uint64
	PollInterval time.Duration
	ErrorBackoff time.Duration
	TimeStep     float64 // synthetic sampling interval in seconds
}

func (o *Options) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = constants.PollInterval
	}
	if o.ErrorBackoff <= 0 {
		o.ErrorBackoff = constants.ErrorBackoff
	}
	if o.TimeStep <= 0 {
		o.TimeStep = constants.DefaultTimeStepMS / 1000
	}
}

// FileMonitor tails one file and pushes changed batches onto the queue.
// It never touches the data store.
type FileMonitor struct {
	state   *TailState
	queue   *Queue
	opts    Options
	enabled func() bool
	wake    chan struct{}
	log     util.LoggerInterface
	lastErr string
}

// NewFileMonitor creates a monitor continuing from state.
// enabled is checked at every poll boundary; nil means always enabled.
func NewFileMonitor(state *TailState, queue *Queue, opts Options, enabled func() bool) *FileMonitor {
	opts.setDefaults()
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &FileMonitor{
		state:   state,
		queue:   queue,
		opts:    opts,
		enabled: enabled,
		wake:    make(chan struct{}, 1),
		log:     util.Log().With(util.F("path", state.Path)),
	}
}

// Path returns the monitored file path
func (m *FileMonitor) Path() string {
	return m.state.Path
}

// Wake cuts the current poll sleep short
func (m *FileMonitor) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled or the monitor is disabled.
// Read and parse failures are logged and retried after the error backoff.
func (m *FileMonitor) Run(ctx context.Context) error {
	m.log.Debug("File monitor started", util.F("offset", m.state.Offset))
	defer m.log.Debug("File monitor stopped")

	for {
		if !m.enabled() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := m.opts.PollInterval
		if _, err := m.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.report(err)
			delay = m.opts.ErrorBackoff
		} else {
			m.lastErr = ""
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-m.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Poll performs one read and pushes an update when the content changed
func (m *FileMonitor) Poll(ctx context.Context) (bool, error) {
	batch, changed, err := m.state.Next(m.opts.TimeStep)
	if err != nil || !changed {
		return false, err
	}

	update := model.PendingUpdate{
		TraceID:     m.state.Path,
		Generation:  m.opts.Generation,
		Samples:     batch.Samples,
		Fingerprint: batch.Fingerprint,
		Offset:      batch.Offset,
	}
	if err := m.queue.Push(ctx, update); err != nil {
		return false, err
	}
	m.log.Debug("Queued update", util.F("samples", len(batch.Samples)), util.F("fingerprint", batch.Fingerprint))
	return true, nil
}

func (m *FileMonitor) report(err error) {
	// a file that stays broken is logged once at warn level
	msg := err.Error()
	repeated := msg == m.lastErr
	m.lastErr = msg

	var emptyErr *EmptyFileError
	switch {
	case repeated || errors.As(err, &emptyErr):
		m.log.Debug("Monitor poll failed, backing off", util.F("error", msg))
	default:
		m.log.Warn("Monitor poll failed, backing off", util.F("error", msg), util.F("backoff", m.opts.ErrorBackoff.String()))
	}
}
