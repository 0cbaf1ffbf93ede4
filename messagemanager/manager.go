// Package messagemanager implements the hard part of this module: a
// filter registry and dispatch loop that demultiplexes inbound frames by
// typed predicate rather than by correlation id, enforces per-filter
// timeouts, and tracks the server's chain tip. See SPEC_FULL.md §4.2 for
// the full design rationale.
package messagemanager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/chia-network/leaflet-go/filter"
	"github.com/chia-network/leaflet-go/metrics"
	"github.com/chia-network/leaflet-go/protocol"
	"github.com/chia-network/leaflet-go/transport"
)

// MessageManager owns the channel, the filter registry, the peak-height
// watcher, and the per-filter timeout scheduler described in spec.md §4.2.
//
// Concurrency model (spec.md §5): registry mutation and dispatch of a
// single inbound frame are serialized by mu, matching the "single
// logical execution context" requirement. latest_peak_height is kept in
// a lock-free atomic pointer, per spec.md §9's suggested re-architecture
// of the "shared mutable peak height" pattern.
type MessageManager struct {
	channel transport.MessageChannel
	metrics *metrics.Collectors

	mu      sync.Mutex
	filters []*filter.Filter
	timers  map[filter.ID]*time.Timer
	closed  bool
	wg      sync.WaitGroup

	peakHeight atomic.Pointer[uint32]

	peakCodec protocol.Codec[protocol.NewPeakWalletMsg]
}

// New returns an unopened MessageManager driving channel.
func New(channel transport.MessageChannel, m *metrics.Collectors) *MessageManager {
	if m == nil {
		m = metrics.NewCollectors()
	}
	return &MessageManager{
		channel:   channel,
		metrics:   m,
		timers:    make(map[filter.ID]*time.Timer),
		peakCodec: protocol.NewPeakWalletCodec(),
	}
}

// Initialize opens the channel and installs the permanent peak watcher
// filter. Returns a TransportError-kind error if the channel refuses to
// open.
func (m *MessageManager) Initialize() error {
	m.channel.OnMessage(m.dispatch)

	if err := m.channel.Open(); err != nil {
		return err
	}

	peakFilter := filter.NewSubscription(nil, m.consumePeak)
	m.mu.Lock()
	m.filters = append(m.filters, peakFilter)
	m.mu.Unlock()
	m.metrics.FiltersActive.Inc()

	log.Infof("message manager initialized")
	return nil
}

// consumePeak is the peak watcher's predicate: it never completes, and
// only ever decodes new_peak_wallet frames.
func (m *MessageManager) consumePeak(msg protocol.Message) bool {
	if msg.Type != protocol.NewPeakWallet {
		return false
	}

	peak, err := m.peakCodec.Decode(msg.Data)
	if err != nil {
		log.Errorf("failed to decode new_peak_wallet, dropping: %v", err)
		return true
	}

	height := peak.Height
	m.peakHeight.Store(&height)
	m.metrics.PeakHeight.Set(float64(height))
	log.Debugf("new peak height: %d", height)

	return true
}

// PeakHeight returns the cached latest peak height, or nil if no
// new_peak_wallet frame has arrived yet.
func (m *MessageManager) PeakHeight() *uint32 {
	return m.peakHeight.Load()
}

// RegisterFilter inserts f into the registry in insertion order and, if
// f.MessageToSend is set, transmits it exactly once. It returns f's
// Completion (nil for subscriptions), or an error in two cases: a
// Cancelled-kind error if the manager has already been closed (f is not
// registered), or the channel's error if the outbound send failed — in
// that case f is removed again before returning, since a filter with a
// message that never went out can never be matched legitimately.
func (m *MessageManager) RegisterFilter(f *filter.Filter) (*filter.Completion, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, filter.CancelledErr()
	}

	m.filters = append(m.filters, f)
	if f.ExpectedMaxResponseWait > 0 {
		m.scheduleTimeoutLocked(f)
	}
	m.mu.Unlock()

	m.metrics.FiltersActive.Inc()

	if f.MessageToSend != nil {
		if err := m.channel.Send(*f.MessageToSend); err != nil {
			m.removeFilter(f.ID())
			return nil, err
		}
	}

	return f.Completion(), nil
}

// scheduleTimeoutLocked arms f's deadline. Must be called with mu held.
func (m *MessageManager) scheduleTimeoutLocked(f *filter.Filter) {
	timer := time.AfterFunc(f.ExpectedMaxResponseWait, func() {
		m.timeoutFilter(f)
	})
	m.timers[f.ID()] = timer
}

// timeoutFilter is invoked off the timer goroutine when a filter's
// deadline elapses. If the filter is still registered (i.e. it hasn't
// already been consumed), it's removed and failed with Timeout; a
// late-arriving matching frame afterward is simply unsolicited and
// discarded by dispatch.
func (m *MessageManager) timeoutFilter(f *filter.Filter) {
	m.mu.Lock()
	removed := m.removeFilterLocked(f.ID())
	m.mu.Unlock()

	if removed {
		m.metrics.FiltersTimedOut.Inc()
		f.Fail(filter.TimeoutErr())
	}
}

// Unsubscribe removes a subscription filter from the registry. It is a
// no-op if the filter is already gone.
func (m *MessageManager) Unsubscribe(id filter.ID) {
	m.removeFilter(id)
}

func (m *MessageManager) removeFilter(id filter.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeFilterLocked(id)
}

// removeFilterLocked removes the filter with the given id from the
// registry and stops its timer, if any. Must be called with mu held.
// Returns whether a filter was actually removed.
func (m *MessageManager) removeFilterLocked(id filter.ID) bool {
	for i, f := range m.filters {
		if f.ID() != id {
			continue
		}
		m.filters = append(m.filters[:i], m.filters[i+1:]...)
		if t, ok := m.timers[id]; ok {
			t.Stop()
			delete(m.timers, id)
		}
		m.metrics.FiltersActive.Dec()
		return true
	}
	return false
}

// dispatch is the channel's Sink: for every inbound frame, it walks the
// installed filters in insertion order. A one-shot filter that matches
// is removed, fulfilled, and ends dispatch for this frame immediately —
// at most one one-shot consumer per frame (spec.md §4.2's dispatch
// algorithm). A subscription filter that matches does not end dispatch:
// two independent subscriptions registered on the same key must both
// see every matching frame (spec.md §8), so the walk continues to the
// remaining filters. The registry mutex is held for the whole of one
// frame's dispatch, so a one-shot filter that matches is guaranteed
// removed before the next frame is processed (spec.md §8's ordering
// invariant), and subscription callbacks — which run from inside
// Consume — must not block, per spec.md §5.
func (m *MessageManager) dispatch(msg protocol.Message) {
	start := time.Now()
	defer func() {
		m.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	consumed := false

	for _, f := range m.filters {
		if !f.Consume(msg) {
			continue
		}

		consumed = true
		m.metrics.FramesConsumed.WithLabelValues(msg.Type.String()).Inc()

		if f.DeleteAfterFirstConsumed {
			m.removeFilterLocked(f.ID())
			f.Fulfil()
			return
		}
	}

	if !consumed {
		m.metrics.FramesDiscarded.WithLabelValues(msg.Type.String()).Inc()
	}
}

// Close closes the channel, then fails every outstanding completion with
// Cancelled and clears the registry. Close is idempotent.
func (m *MessageManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	outstanding := m.filters
	m.filters = nil
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = make(map[filter.ID]*time.Timer)
	m.mu.Unlock()

	for _, f := range outstanding {
		if f.DeleteAfterFirstConsumed {
			f.Fail(filter.CancelledErr())
		}
	}

	m.metrics.FiltersActive.Set(0)

	return m.channel.Close()
}
