package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is a step of the submission lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Notification texts.
const (
	MsgSubmitted    = "invoice created and forwarded to KSeF"
	MsgSubmitFailed = "failed to create invoice"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrAlreadySubmitted = errors.New("draft has already been submitted")
	ErrDetached         = errors.New("controller is detached")
)

// Created is the part of the creation response the controller relies on.
type Created struct {
	ID string `json:"id"`
}

// Submitter sends an assembled invoice to the creation endpoint.
type Submitter interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Created, error)
}

// Notifier delivers fire-and-forget messages to the operator.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// Navigator moves the operator to another view.
type Navigator interface {
	Navigate(path string)
}

// RejectionError is a structured failure returned by the creation endpoint.
// Detail, when set, is shown to the operator verbatim.
type RejectionError struct {
	StatusCode int
	Detail     string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invoice rejected (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("invoice rejected (status %d): %s", e.StatusCode, e.Detail)
}

// FailureMessage picks the operator-facing text for a failed submission.
func FailureMessage(err error) string {
	var rej *RejectionError
	if errors.As(err, &rej) && rej.Detail != "" {
		return rej.Detail
	}
	return MsgSubmitFailed
}

// DetailPath is the navigation target of a created invoice.
func DetailPath(id string) string {
	return "/invoices/" + id
}

// Result describes how one Submit call ended.
type Result struct {
	State State
	// ID is set when the invoice was created.
	ID string
	// Errors holds field errors when validation blocked the submission.
	Errors ErrorMap
	// Err is the transport or server failure of the creation request.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithTransitionHook registers fn to observe every state change. It runs with
// the controller locked and must not call back into it.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(c *Controller) {
		c.onTransition = fn
	}
}

// Controller drives a draft through validation and submission.
type Controller struct {
	mu           sync.Mutex
	state        State
	draft        *Draft
	errors       ErrorMap
	detached     bool
	submitter    Submitter
	notifier     Notifier
	navigator    Navigator
	onTransition func(from, to State)
}

func NewController(d *Draft, submitter Submitter, notifier Notifier, navigator Navigator, opts ...Option) *Controller {
	c := &Controller{
		state:     StateIdle,
		draft:     d,
		errors:    ErrorMap{},
		submitter: submitter,
		notifier:  notifier,
		navigator: navigator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanSubmit reports whether the submit trigger should be enabled.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateIdle && !c.detached && c.draft != nil
}

// Errors returns the field errors of the last validation.
func (c *Controller) Errors() ErrorMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(ErrorMap, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// Draft returns the draft being edited, or nil once it was submitted.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Detach marks the controller as abandoned. A response that arrives later is
// dropped without notifications or navigation.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
}

// Submit validates the draft and, when it passes, sends it. The returned error
// is non-nil only when the trigger itself was refused; the outcome of an
// accepted attempt is reported in Result.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	switch {
	case c.detached:
		state := c.state
		c.mu.Unlock()
		return Result{State: state}, ErrDetached
	case c.state == StateSubmitting || c.state == StateValidating:
		c.mu.Unlock()
		return Result{State: StateSubmitting}, ErrSubmitInProgress
	case c.state == StateSucceeded:
		c.mu.Unlock()
		return Result{State: StateSucceeded}, ErrAlreadySubmitted
	}

	c.transition(StateValidating)
	inv := c.draft.Invoice()
	if errs := Validate(inv).Reindex(c.draft.Items.SubmittablePositions()); len(errs) > 0 {
		c.errors = errs
		c.transition(StateIdle)
		c.mu.Unlock()
		return Result{State: StateIdle, Errors: errs}, nil
	}
	c.errors = ErrorMap{}
	c.transition(StateSubmitting)
	c.mu.Unlock()

	created, err := c.submitter.CreateInvoice(ctx, inv)
	if err == nil && created.ID == "" {
		err = &RejectionError{Detail: ""}
	}

	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return Result{State: StateSubmitting, ID: created.ID, Err: err}, ErrDetached
	}

	if err != nil {
		c.transition(StateFailed)
		c.transition(StateIdle)
		c.mu.Unlock()
		c.notifier.Failure(FailureMessage(err))
		return Result{State: StateIdle, Err: err}, nil
	}

	c.transition(StateSucceeded)
	c.draft = nil
	c.mu.Unlock()
	c.notifier.Success(MsgSubmitted)
	c.navigator.Navigate(DetailPath(created.ID))
	return Result{State: StateSucceeded, ID: created.ID}, nil
}

// transition must be called with c.mu held.
func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
}
