// Package filter implements the registered-intent abstraction the
// MessageManager dispatches inbound frames through: a predicate over
// frame contents, paired with either a one-shot completion waiter
// (request/response) or nothing at all (a long-lived subscription).
package filter

import (
	"time"

	"github.com/chia-network/leaflet-go/leafleterr"
	"github.com/chia-network/leaflet-go/protocol"
	"github.com/google/uuid"
)

// DefaultTimeout is the deadline applied to a one-shot Filter that does
// not specify ExpectedMaxResponseWait.
const DefaultTimeout = 15 * time.Second

// Consumer is a pure predicate over an inbound frame: it returns true iff
// this filter accepts (consumes) the frame. Subscription filters perform
// their callback side effect here, before returning true; that callback
// runs inside the message manager's dispatch with the registry lock held,
// so it must not block.
type Consumer func(msg protocol.Message) bool

// Completion is the one-shot waiter fulfilled the first time a Filter's
// Consumer returns true. It is present only for filters with
// DeleteAfterFirstConsumed set.
type Completion struct {
	done chan struct{}
	err  error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// fulfil marks the completion successful. Safe to call at most once.
func (c *Completion) fulfil() {
	close(c.done)
}

// fail marks the completion failed with err. Safe to call at most once.
func (c *Completion) fail(err error) {
	c.err = err
	close(c.done)
}

// Wait blocks until the completion is fulfilled or fails, returning the
// error passed to fail (nil on success).
func (c *Completion) Wait() error {
	<-c.done
	return c.err
}

// ID uniquely identifies a Filter within a registry for logging and
// deregistration.
type ID = uuid.UUID

// Filter is a registered intent to send zero or one outbound frame and to
// consume matching inbound frames via Consume.
//
// Invariant (spec.md §3): a Filter either has DeleteAfterFirstConsumed
// true and a non-nil completion (request/response), or has it false with
// a nil completion (subscription / peak watcher). NewOneShot and
// NewSubscription are the only ways to build a Filter so this invariant
// cannot be violated by construction.
type Filter struct {
	id ID

	// MessageToSend is sent exactly once at registration, if non-nil.
	MessageToSend *protocol.Message

	// Consume is invoked for each inbound frame that reaches this filter
	// while it is registered (a one-shot filter earlier in insertion
	// order that consumes the frame ends the walk). A one-shot filter is
	// removed the first time it returns true; a subscription keeps
	// being invoked.
	Consume Consumer

	// DeleteAfterFirstConsumed removes the filter from the registry the
	// first time Consume returns true.
	DeleteAfterFirstConsumed bool

	// ExpectedMaxResponseWait is the deadline after which an
	// unconsumed, one-shot filter is removed and failed with Timeout.
	// Zero disables the timeout; always zero for subscriptions.
	ExpectedMaxResponseWait time.Duration

	completion *Completion
}

// NewOneShot builds a request/response Filter: it will be removed and its
// Completion fulfilled the first time consume matches, or failed with
// Timeout if maxWait elapses first (maxWait <= 0 uses DefaultTimeout).
func NewOneShot(toSend *protocol.Message, consume Consumer, maxWait time.Duration) *Filter {
	if maxWait <= 0 {
		maxWait = DefaultTimeout
	}
	return &Filter{
		id:                       uuid.New(),
		MessageToSend:            toSend,
		Consume:                  consume,
		DeleteAfterFirstConsumed: true,
		ExpectedMaxResponseWait:  maxWait,
		completion:               newCompletion(),
	}
}

// NewSubscription builds a long-lived Filter that never self-removes and
// never times out. consume returns false for frames it doesn't
// recognize, in which case dispatch continues to the next filter; a
// subscription's predicate is expected to perform its callback side
// effect itself before returning true for a frame it does recognize.
//
// toSend, if non-nil, is transmitted once at registration — used by
// subscribeToPuzzleHashUpdates/subscribeToCoinUpdates to register server-
// side interest at the same time the persistent filter is installed. Pass
// nil for a purely passive filter such as the peak watcher.
func NewSubscription(toSend *protocol.Message, consume Consumer) *Filter {
	return &Filter{
		id:                       uuid.New(),
		MessageToSend:            toSend,
		Consume:                  consume,
		DeleteAfterFirstConsumed: false,
	}
}

// ID returns this filter's unique identifier.
func (f *Filter) ID() ID {
	return f.id
}

// IsSubscription reports whether this is a long-lived filter with no
// completion waiter.
func (f *Filter) IsSubscription() bool {
	return !f.DeleteAfterFirstConsumed
}

// Completion returns the one-shot waiter, or nil for a subscription.
func (f *Filter) Completion() *Completion {
	return f.completion
}

// fulfil marks a one-shot filter's completion successful. No-op for
// subscriptions.
func (f *Filter) fulfil() {
	if f.completion != nil {
		f.completion.fulfil()
	}
}

// Fail marks a one-shot filter's completion failed with err. No-op for
// subscriptions.
func (f *Filter) Fail(err error) {
	if f.completion != nil {
		f.completion.fail(err)
	}
}

// Fulfil is the exported form of fulfil, used by the registry once
// Consume has returned true for a one-shot filter.
func (f *Filter) Fulfil() {
	f.fulfil()
}

// TimeoutErr is a convenience constructor used by the registry's timeout
// scheduler.
func TimeoutErr() error {
	return leafleterr.New(leafleterr.Timeout, "filter deadline elapsed with no matching frame")
}

// CancelledErr is a convenience constructor used when the manager closes
// with filters still outstanding.
func CancelledErr() error {
	return leafleterr.New(leafleterr.Cancelled, "message manager closed")
}
