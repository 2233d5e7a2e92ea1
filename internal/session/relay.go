package session

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/model"
)

var (
	ErrUnknownSession = errors.New("no payment session for this order")
	ErrModalNotOpen   = errors.New("payment modal is not open yet")
	ErrUnknownEvent   = errors.New("unknown payment event")
)

type EventKind string

const (
	EventSDKLoaded EventKind = "sdk_loaded"
	EventSuccess   EventKind = "success"
	EventDismiss   EventKind = "dismiss"
	EventFailed    EventKind = "failed"
)

// Event is a browser-side signal forwarded to the server.
type Event struct {
	Kind        EventKind
	Record      model.PaymentVerificationRecord
	Code        string
	Description string
}

// Relay is the hosted Surface: the browser loads the gateway script and
// opens the modal itself, and reports each step back over HTTP. Relay turns
// those callbacks into Ready/Open completion and Sink signals.
type Relay struct {
	mu       sync.Mutex
	sessions map[string]*relaySession
}

type relaySession struct {
	loaded   chan struct{}
	loadOnce sync.Once
	opts     *Options
	sink     Sink
}

func NewRelay() *Relay {
	return &Relay{sessions: make(map[string]*relaySession)}
}

// Register makes orderID known so its browser callbacks are accepted.
func (r *Relay) Register(orderID string) {
	r.session(orderID)
}

func (r *Relay) session(orderID string) *relaySession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[orderID]
	if !ok {
		s = &relaySession{loaded: make(chan struct{})}
		r.sessions[orderID] = s
	}
	return s
}

func (r *Relay) lookup(orderID string) (*relaySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[orderID]
	return s, ok
}

func (r *Relay) Ready(ctx context.Context, orderID string) error {
	s := r.session(orderID)
	select {
	case <-s.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) Open(_ context.Context, opts Options, sink Sink) error {
	s := r.session(opts.OrderID)

	r.mu.Lock()
	defer r.mu.Unlock()
	s.opts = &opts
	s.sink = sink
	return nil
}

func (r *Relay) Release(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, orderID)
}

// Deliver forwards a browser callback for orderID.
func (r *Relay) Deliver(orderID string, ev Event) error {
	s, ok := r.lookup(orderID)
	if !ok {
		return ErrUnknownSession
	}

	if ev.Kind == EventSDKLoaded {
		s.loadOnce.Do(func() { close(s.loaded) })
		return nil
	}

	r.mu.Lock()
	sink := s.sink
	r.mu.Unlock()
	if sink == nil {
		return ErrModalNotOpen
	}

	switch ev.Kind {
	case EventSuccess:
		sink.Succeed(ev.Record)
	case EventDismiss:
		sink.Dismiss()
	case EventFailed:
		sink.Fail(ev.Code, ev.Description)
	default:
		return ErrUnknownEvent
	}
	return nil
}
