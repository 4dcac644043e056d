package syncer

import (
	"context"
	"sync"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const progressBuffer = 32

// Run is a sync pass executing on its own goroutine. Progress, Done and Wait
// may be used from any goroutine.
type Run struct {
	progress chan interfaces.Progress
	done     chan struct{}
	cancel   context.CancelFunc

	mu      sync.Mutex
	latest  interfaces.Progress
	outcome *Outcome
	err     error
}

// Start launches a sync pass on a single background goroutine and returns
// its handle.
func (d *Driver) Start(ctx context.Context, doc interfaces.Document, opts RunOptions) *Run {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		progress: make(chan interfaces.Progress, progressBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go func() {
		defer close(r.done)
		defer close(r.progress)
		defer cancel()
		outcome, err := d.run(ctx, doc, opts, r.publish)
		r.mu.Lock()
		r.outcome, r.err = outcome, err
		r.mu.Unlock()
	}()
	return r
}

// Progress streams (current, total) updates. When the reader falls behind
// the oldest pending update is dropped; Latest always has the newest. The
// channel is closed when the run ends.
func (r *Run) Progress() <-chan interfaces.Progress {
	return r.progress
}

// Latest returns the most recent progress update.
func (r *Run) Latest() interfaces.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel requests a cooperative stop. Items already written stay written.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the run finishes and returns its outcome.
func (r *Run) Wait() (*Outcome, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome, r.err
}

func (r *Run) publish(p interfaces.Progress) {
	r.mu.Lock()
	r.latest = p
	r.mu.Unlock()
	for {
		select {
		case r.progress <- p:
			return
		default:
		}
		select {
		case <-r.progress:
		default:
		}
	}
}
