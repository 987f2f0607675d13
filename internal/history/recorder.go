package history

import (
	"context"
	"time"

	"framesched/internal/eventbus"
	"framesched/internal/frame"
	logx "framesched/pkg/logx"
)

// Recorder subscribes to the eventbus and persists task fires.
// It is the only writer of fire records; the scheduler itself never touches
// the store.
type Recorder struct {
	store Store
	log   logx.Logger
	bus   eventbus.Bus
}

func NewRecorder(store Store, log logx.Logger, bus eventbus.Bus) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{store: store, log: log, bus: bus}
}

// Run blocks consuming bus events until ctx is done. With a nil store or bus
// it returns immediately.
func (r *Recorder) Run(ctx context.Context) error {
	if r.store == nil || r.bus == nil {
		return nil
	}
	ch, unsub := r.bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			switch ev.Type {
			case eventbus.TypeTaskFired, eventbus.TypeTaskExpired:
				te, ok := ev.Data.(frame.TaskEvent)
				if !ok {
					continue
				}
				wctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				err := r.store.AppendFire(wctx, FireRecord{
					At:      te.At,
					Handle:  string(te.Handle),
					Kind:    te.Kind,
					Delta:   te.Delta,
					Elapsed: te.Elapsed,
				})
				cancel()
				if err != nil {
					r.log.Warn("fire record append failed",
						logx.String("handle", string(te.Handle)), logx.Err(err))
				}
			}
		}
	}
}
