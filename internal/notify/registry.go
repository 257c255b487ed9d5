// Package notify is the process-wide notification registry.
//
// Subscribers register per event kind and are called synchronously, in
// registration order, on the goroutine that dispatches. A failing or
// panicking subscriber does not stop delivery to the ones after it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/logging"
)

var (
	// ErrNilSubscriber is returned when registering a nil subscriber.
	ErrNilSubscriber = errors.New("nil subscriber")
	// ErrUnknownKind is returned when registering for an unknown kind.
	ErrUnknownKind = errors.New("unknown notification kind")
	// ErrUnexpectedEvent is returned by typed adapters handed the wrong payload.
	ErrUnexpectedEvent = errors.New("unexpected event type")
)

// Subscriber handles one notification.
type Subscriber interface {
	Notify(ctx context.Context, ev Event) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, ev Event) error

func (f SubscriberFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Dispatcher delivers a notification to every subscriber of its kind.
// *Registry is the implementation; producers such as the radio depend on
// this interface only.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

// Nop is the default power-off subscriber.
var Nop Subscriber = SubscriberFunc(func(context.Context, Event) error { return nil })

// Registry maps kinds to ordered subscriber lists. Entries are add-only.
type Registry struct {
	mu   sync.RWMutex
	subs map[Kind][]Subscriber
}

// NewRegistry returns a registry with the no-op power-off subscriber registered.
func NewRegistry() *Registry {
	r := &Registry{subs: make(map[Kind][]Subscriber)}
	r.subs[SysWillPowerOff] = []Subscriber{Nop}
	return r
}

// Register appends sub to the list for kind. The same subscriber may be
// registered more than once and will then be called more than once.
func (r *Registry) Register(kind Kind, sub Subscriber) error {
	if sub == nil {
		return ErrNilSubscriber
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[kind] = append(r.subs[kind], sub)
	return nil
}

// Count returns the number of subscribers registered for kind.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[kind])
}

// Dispatch delivers ev to every subscriber of its kind before returning.
// Subscriber errors and panics are logged and joined into the result; they
// never skip later subscribers.
func (r *Registry) Dispatch(ctx context.Context, ev Event) error {
	kind := ev.Kind()

	r.mu.RLock()
	subs := make([]Subscriber, len(r.subs[kind]))
	copy(subs, r.subs[kind])
	r.mu.RUnlock()

	var errs []error
	for i, sub := range subs {
		if err := deliver(ctx, sub, ev); err != nil {
			logging.Warn("Subscriber failed",
				zap.Stringer("kind", kind),
				zap.Int("index", i),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	logging.LogNotification(kind.String(), len(subs), len(errs))
	return errors.Join(errs...)
}

func deliver(ctx context.Context, sub Subscriber, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber panic: %v", p)
		}
	}()
	return sub.Notify(ctx, ev)
}
