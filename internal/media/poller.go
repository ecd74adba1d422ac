package media

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval matches the twice-per-second display refresh.
const DefaultPollInterval = 500 * time.Millisecond

// Poller calls tick at a fixed interval until stopped. It owns the timer so
// the controller never does.
type Poller struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartPoller begins ticking. The poller exits when ctx is cancelled or Stop
// is called, whichever happens first.
func StartPoller(ctx context.Context, interval time.Duration, tick func()) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	return p
}

// Stop halts the poller and waits for its goroutine to exit. It is safe to
// call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

// Done is closed once the poller goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
