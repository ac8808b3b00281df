package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultSendTimeout = 15 * time.Second

// Dispatcher sends notifications fire-and-forget. Delivery errors and panics
// are logged and dropped; nothing is reported back to the caller.
type Dispatcher struct {
	Notifier Notifier
	Timeout  time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{Notifier: n, Timeout: defaultSendTimeout}
}

// Dispatch returns immediately; the send happens on its own goroutine.
func (d *Dispatcher) Dispatch(kind Kind, toUserID uuid.UUID, msg Message) {
	if d == nil || d.Notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		timeout := d.Timeout
		if timeout <= 0 {
			timeout = defaultSendTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := d.send(ctx, kind, toUserID, msg); err != nil {
			log.Warn().Err(err).
				Str("kind", string(kind)).
				Str("to_user_id", toUserID.String()).
				Str("transfer_id", msg.TransferID.String()).
				Msg("transfer notification not delivered")
		}
	}()
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, toUserID uuid.UUID, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.Notifier.Notify(ctx, kind, toUserID, msg)
}

// Wait blocks until every in-flight send has finished. Used on shutdown.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
