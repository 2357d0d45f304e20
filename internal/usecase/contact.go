package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"portfolio-contact-backend/internal/domain"
)

// ContactController owns one contact form: its live input, field errors and
// submission state. At most one delivery is in flight at a time.
type ContactController struct {
	client domain.DeliveryClient
	log    *slog.Logger

	mu          sync.Mutex
	state       domain.SubmissionState
	input       domain.FormInput
	fieldErrors domain.FieldErrors
	success     string
	failure     string
	lastErr     error

	observers map[int]func(domain.Snapshot)
	nextID    int
	// pending holds snapshots not yet delivered, in the order the changes
	// happened. Only one goroutine drains it at a time.
	pending     []domain.Snapshot
	dispatching bool
}

// NewContactController creates a controller in the Idle state
func NewContactController(client domain.DeliveryClient, log *slog.Logger) *ContactController {
	if log == nil {
		log = slog.Default()
	}
	return &ContactController{
		client:    client,
		log:       log,
		state:     domain.StateIdle,
		observers: make(map[int]func(domain.Snapshot)),
	}
}

// Snapshot returns a copy of the current state
func (c *ContactController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ContactController) snapshotLocked() domain.Snapshot {
	var fe domain.FieldErrors
	if len(c.fieldErrors) > 0 {
		fe = make(domain.FieldErrors, len(c.fieldErrors))
		for k, v := range c.fieldErrors {
			fe[k] = v
		}
	}
	return domain.Snapshot{
		State:          c.state,
		Input:          c.input,
		FieldErrors:    fe,
		SuccessMessage: c.success,
		FailureMessage: c.failure,
	}
}

// Subscribe registers fn to receive a snapshot after every change, in order.
// fn may call back into the controller; the resulting snapshot is delivered
// after fn returns. The returned func removes the subscription.
func (c *ContactController) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// changedLocked queues the current state for observers and returns it.
// c.mu must be held; call dispatch after unlocking.
func (c *ContactController) changedLocked() domain.Snapshot {
	snap := c.snapshotLocked()
	if len(c.observers) > 0 {
		c.pending = append(c.pending, snap)
	}
	return snap
}

// dispatch delivers queued snapshots. If another call is already draining,
// including one further up this goroutine's stack, it returns at once and
// that call delivers the rest. Must be called without c.mu held.
func (c *ContactController) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true

	for len(c.pending) > 0 {
		snap := c.pending[0]
		c.pending = c.pending[1:]
		fns := make([]func(domain.Snapshot), 0, len(c.observers))
		for i := 0; i < c.nextID; i++ {
			if fn, ok := c.observers[i]; ok {
				fns = append(fns, fn)
			}
		}
		c.mu.Unlock()

		for _, fn := range fns {
			fn(snap)
		}
		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}

// Edit updates one field. Editing after Succeeded or Failed clears the
// outcome flags and returns the form to Idle. While field errors are shown
// the edited field is checked again, so fixing it clears its error.
func (c *ContactController) Edit(field, value string) error {
	c.mu.Lock()
	if err := c.input.Set(field, value); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.IsTerminal() {
		c.resetOutcomeLocked()
	}
	if len(c.fieldErrors) > 0 {
		_, errs := c.input.Validate()
		if msg, ok := errs[field]; ok {
			c.fieldErrors[field] = msg
		} else {
			delete(c.fieldErrors, field)
		}
	}
	c.changedLocked()
	c.mu.Unlock()

	c.dispatch()
	return nil
}

// Fill replaces all fields at once, with the same state effect as Edit.
func (c *ContactController) Fill(input domain.FormInput) {
	c.mu.Lock()
	c.input = input
	if c.state.IsTerminal() {
		c.resetOutcomeLocked()
	}
	if len(c.fieldErrors) > 0 {
		_, c.fieldErrors = c.input.Validate()
	}
	c.changedLocked()
	c.mu.Unlock()

	c.dispatch()
}

func (c *ContactController) resetOutcomeLocked() {
	c.state = domain.StateIdle
	c.success = ""
	c.failure = ""
}

// Submit validates the current input and, when valid, relays it through the
// delivery client. It blocks until the relay answers. Cancelling ctx does not
// abort a send already started; the client's own timeout bounds it. A submit
// while another is in flight returns domain.ErrSubmissionInFlight.
func (c *ContactController) Submit(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	if c.state == domain.StateSubmitting {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, domain.ErrSubmissionInFlight
	}

	// A new attempt starts from Idle
	c.resetOutcomeLocked()
	c.lastErr = nil

	msg, fieldErrors := c.input.Validate()
	if len(fieldErrors) > 0 {
		c.fieldErrors = fieldErrors
		snap := c.changedLocked()
		c.mu.Unlock()
		c.dispatch()
		return snap, nil
	}

	c.fieldErrors = nil
	c.state = domain.StateSubmitting
	c.changedLocked()
	c.mu.Unlock()
	c.dispatch()

	err := c.client.Send(context.WithoutCancel(ctx), msg)

	c.mu.Lock()
	c.lastErr = err
	if err != nil {
		c.state = domain.StateFailed
		c.failure = domain.UserFacingFailure
		c.logFailure(err)
	} else {
		c.state = domain.StateSucceeded
		c.success = domain.SuccessMessage
		c.input = domain.FormInput{}
		c.log.Info("Contact message sent", "subject", msg.Subject())
	}
	snap := c.changedLocked()
	c.mu.Unlock()
	c.dispatch()

	return snap, nil
}

// LastDeliveryError returns the raw outcome of the most recent delivery
// attempt, for operator-facing use only.
func (c *ContactController) LastDeliveryError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *ContactController) logFailure(err error) {
	var de *domain.DeliveryError
	if !errors.As(err, &de) {
		c.log.Error("Contact delivery failed", "kind", "unknown", "error", err)
		return
	}
	if de.Kind == domain.DeliveryConfiguration {
		c.log.Error("Contact relay is not configured", "kind", de.Kind, "reason", de.Reason)
		return
	}
	c.log.Error("Contact delivery failed", "kind", de.Kind, "reason", de.Reason, "error", de.Err)
}

// ControllerFactory builds controllers bound to one delivery client
type ControllerFactory struct {
	client domain.DeliveryClient
	log    *slog.Logger
}

func NewControllerFactory(client domain.DeliveryClient, log *slog.Logger) *ControllerFactory {
	return &ControllerFactory{client: client, log: log}
}

func (f *ControllerFactory) New() *ContactController {
	return NewContactController(f.client, f.log)
}

type contactUsecase struct {
	controllers *ControllerFactory
}

// NewContactUsecase creates the one-shot contact usecase
func NewContactUsecase(controllers *ControllerFactory) domain.ContactUsecase {
	return &contactUsecase{controllers: controllers}
}

// SendContactMessage fills a fresh form with input and submits it. The
// returned error is the raw delivery failure, never meant for the visitor.
func (uc *contactUsecase) SendContactMessage(ctx context.Context, input domain.FormInput) (domain.Snapshot, error) {
	ctrl := uc.controllers.New()
	ctrl.Fill(input)
	snap, err := ctrl.Submit(ctx)
	if err != nil {
		return snap, err
	}
	return snap, ctrl.LastDeliveryError()
}
