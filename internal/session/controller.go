// Package session drives a single payment collection attempt from SDK load
// to a terminal outcome.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/logging"
	"storefront/internal/model"

	"github.com/sirupsen/logrus"
)

type State int

const (
	Idle State = iota
	SDKLoading
	ModalOpen
	Succeeded
	Cancelled
	Failed
	TimedOut
)

var stateNames = map[State]string{
	Idle:       "idle",
	SDKLoading: "sdk_loading",
	ModalOpen:  "modal_open",
	Succeeded:  "succeeded",
	Cancelled:  "cancelled",
	Failed:     "failed",
	TimedOut:   "timed_out",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s >= Succeeded
}

// Failure reasons reported by the controller itself.
const (
	ReasonSDKUnavailable = "sdk_unavailable"
	ReasonOpenFailed     = "modal_open_failed"
)

var (
	ErrAttemptInFlight = errors.New("a payment attempt is already in progress for this session")
	ErrMissingKey      = errors.New("session key is required")
)

type Result struct {
	State       State
	Record      *model.PaymentVerificationRecord
	Code        string
	Description string
}

const (
	DefaultSDKTimeout   = 10 * time.Second
	DefaultModalTimeout = 45 * time.Second
)

type Controller struct {
	surface      Surface
	sdkTimeout   time.Duration
	modalTimeout time.Duration
	log          *logrus.Entry

	mu       sync.Mutex
	inFlight map[string]*attempt
}

func NewController(surface Surface, sdkTimeout, modalTimeout time.Duration) *Controller {
	if sdkTimeout <= 0 {
		sdkTimeout = DefaultSDKTimeout
	}
	if modalTimeout <= 0 {
		modalTimeout = DefaultModalTimeout
	}
	return &Controller{
		surface:      surface,
		sdkTimeout:   sdkTimeout,
		modalTimeout: modalTimeout,
		log:          logging.New("payment-session"),
		inFlight:     make(map[string]*attempt),
	}
}

// Run performs one attempt and blocks until it resolves. Exactly one
// terminal state is produced. Once the modal is open, cancelling ctx does not
// end the attempt: only the payer or the modal timeout can.
func (c *Controller) Run(ctx context.Context, key string, opts Options) (Result, error) {
	if key == "" {
		return Result{}, ErrMissingKey
	}
	a, err := c.begin(key)
	if err != nil {
		return Result{}, err
	}
	defer c.end(key)
	defer c.surface.Release(opts.OrderID)

	log := c.log.WithFields(logrus.Fields{"session": key, "gateway_order_id": opts.OrderID})

	a.setState(SDKLoading)
	readyCtx, cancel := context.WithTimeout(ctx, c.sdkTimeout)
	err = c.surface.Ready(readyCtx, opts.OrderID)
	cancel()
	if err != nil {
		log.WithError(err).Warn("payment library unavailable")
		a.resolve(Result{State: Failed, Code: ReasonSDKUnavailable, Description: err.Error()})
		return a.outcome(), nil
	}

	a.setState(ModalOpen)
	if err := c.surface.Open(ctx, opts, a); err != nil {
		log.WithError(err).Warn("payment modal failed to open")
		a.resolve(Result{State: Failed, Code: ReasonOpenFailed, Description: err.Error()})
		return a.outcome(), nil
	}

	timer := time.NewTimer(c.modalTimeout)
	defer timer.Stop()
	select {
	case <-a.done:
	case <-timer.C:
		if a.resolve(Result{State: TimedOut}) {
			log.Warn("no terminal payment signal before timeout; payment status unknown")
		}
	}

	res := a.outcome()
	log.WithField("state", res.State.String()).Info("payment attempt resolved")
	return res, nil
}

// State returns the current state of the in-flight attempt for key.
func (c *Controller) State(key string) (State, bool) {
	c.mu.Lock()
	a, ok := c.inFlight[key]
	c.mu.Unlock()
	if !ok {
		return Idle, false
	}
	return a.currentState(), true
}

func (c *Controller) begin(key string) (*attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[key]; busy {
		return nil, ErrAttemptInFlight
	}
	a := newAttempt()
	c.inFlight[key] = a
	return a, nil
}

func (c *Controller) end(key string) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

// attempt is the Sink handed to the surface.
type attempt struct {
	mu     sync.Mutex
	state  State
	result Result
	done   chan struct{}
}

func newAttempt() *attempt {
	return &attempt{state: Idle, done: make(chan struct{})}
}

func (a *attempt) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Terminal() {
		a.state = s
	}
}

func (a *attempt) currentState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *attempt) outcome() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// resolve records r if no terminal state was reached yet.
func (a *attempt) resolve(r Result) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Terminal() {
		return false
	}
	a.state = r.State
	a.result = r
	close(a.done)
	return true
}

func (a *attempt) Succeed(rec model.PaymentVerificationRecord) {
	a.resolve(Result{State: Succeeded, Record: &rec})
}

func (a *attempt) Dismiss() {
	a.resolve(Result{State: Cancelled})
}

func (a *attempt) Fail(code, description string) {
	a.resolve(Result{State: Failed, Code: code, Description: description})
}
