package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/remote-inspect/internal/metrics"
	"github.com/crucial707/remote-inspect/internal/safego"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// Dispatcher fans events out to its notifiers in the background. Each delivery
// runs with its own timeout; failures are logged and counted, never returned.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher returns a Dispatcher. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Dispatch starts delivery of ev and returns immediately.
func (d *Dispatcher) Dispatch(ev Event) {
	for _, n := range d.notifiers {
		n := n
		d.wg.Add(1)
		safego.Go("notify:"+n.Channel(), func() {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			err := n.Notify(ctx, ev)
			metrics.RecordNotification(n.Channel(), err)
			if err != nil {
				slog.Warn("notification failed",
					"channel", n.Channel(),
					"event", ev.Type,
					"inspection_id", ev.InspectionID,
					"error", err)
			}
		})
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
