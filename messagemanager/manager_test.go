package messagemanager

import (
	"sync"
	"testing"
	"time"

	"github.com/chia-network/leaflet-go/filter"
	"github.com/chia-network/leaflet-go/leafleterr"
	"github.com/chia-network/leaflet-go/protocol"
	"github.com/chia-network/leaflet-go/transport"
	"github.com/stretchr/testify/require"
)

// fakeChannel is a transport.MessageChannel whose inbound frames are
// pushed directly from tests via Push, and whose outbound frames are
// recorded for assertions.
type fakeChannel struct {
	mu     sync.Mutex
	sink   transport.Sink
	sent   []protocol.Message
	closed bool
	openErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{}
}

func (f *fakeChannel) Open() error {
	return f.openErr
}

func (f *fakeChannel) Send(msg protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return leafleterr.New(leafleterr.TransportError, "closed")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) OnMessage(sink transport.Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Push delivers msg to the registered sink, simulating an inbound frame.
func (f *fakeChannel) Push(msg protocol.Message) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink != nil {
		sink(msg)
	}
}

func newPeakFrame(t *testing.T, height uint32) protocol.Message {
	t.Helper()
	codec := protocol.NewPeakWalletCodec()
	msg, err := protocol.EncodeMessage(protocol.NewPeakWallet, codec, protocol.NewPeakWalletMsg{
		Height: height,
	})
	require.NoError(t, err)
	return msg
}

func TestPeakWatcherUpdatesHeight(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	require.Nil(t, mgr.PeakHeight())

	ch.Push(newPeakFrame(t, 100))
	require.Equal(t, uint32(100), *mgr.PeakHeight())

	ch.Push(newPeakFrame(t, 105))
	require.Equal(t, uint32(105), *mgr.PeakHeight())
}

func TestOneShotFilterConsumedExactlyOnce(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	var consumeCount int
	f := filter.NewOneShot(nil, func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondPuzzleSolution {
			return false
		}
		consumeCount++
		return true
	}, 0)

	completion, err := mgr.RegisterFilter(f)
	require.NoError(t, err)
	require.NotNil(t, completion)

	ch.Push(protocol.Message{Type: protocol.RespondPuzzleSolution})
	require.NoError(t, completion.Wait())
	require.Equal(t, 1, consumeCount)

	// A second matching frame arrives after removal; it must not be
	// consumed by the now-deregistered filter.
	ch.Push(protocol.Message{Type: protocol.RespondPuzzleSolution})
	require.Equal(t, 1, consumeCount)
}

func TestInsertionOrderTieBreak(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	var firstConsumed, secondConsumed bool

	first := filter.NewOneShot(nil, func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondChildren {
			return false
		}
		firstConsumed = true
		return true
	}, 0)
	second := filter.NewOneShot(nil, func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondChildren {
			return false
		}
		secondConsumed = true
		return true
	}, 0)

	_, err := mgr.RegisterFilter(first)
	require.NoError(t, err)
	_, err = mgr.RegisterFilter(second)
	require.NoError(t, err)

	ch.Push(protocol.Message{Type: protocol.RespondChildren})

	require.True(t, firstConsumed)
	require.False(t, secondConsumed)
}

func TestTimeoutRemovesFilterAndLateFrameIsDiscarded(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	var consumeCount int
	f := filter.NewOneShot(nil, func(msg protocol.Message) bool {
		consumeCount++
		return msg.Type == protocol.RespondBlockHeader
	}, 20*time.Millisecond)

	completion, err := mgr.RegisterFilter(f)
	require.NoError(t, err)

	err = completion.Wait()
	require.Error(t, err)
	require.True(t, leafleterr.Is(err, leafleterr.Timeout))

	// The late frame is unsolicited now; dispatch must not panic or
	// re-match a removed filter.
	preCount := consumeCount
	ch.Push(protocol.Message{Type: protocol.RespondBlockHeader})
	require.Equal(t, preCount, consumeCount)
}

func TestCloseCancelsOutstandingCompletions(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	f := filter.NewOneShot(nil, func(msg protocol.Message) bool {
		return false
	}, 0)
	completion, err := mgr.RegisterFilter(f)
	require.NoError(t, err)

	require.NoError(t, mgr.Close())

	err = completion.Wait()
	require.Error(t, err)
	require.True(t, leafleterr.Is(err, leafleterr.Cancelled))

	require.Empty(t, mgr.filters)
}

func TestSubscriptionFilterSurvivesMultipleMatches(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	var matches int
	sub := filter.NewSubscription(nil, func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondToPHUpdate {
			return false
		}
		matches++
		return true
	})
	_, err := mgr.RegisterFilter(sub)
	require.NoError(t, err)

	ch.Push(protocol.Message{Type: protocol.RespondToPHUpdate})
	ch.Push(protocol.Message{Type: protocol.RespondToPHUpdate})
	ch.Push(protocol.Message{Type: protocol.RespondToPHUpdate})

	require.Equal(t, 3, matches)
}

func TestTwoIndependentSubscriptionsOnSameKeyBothReceiveEveryFrame(t *testing.T) {
	ch := newFakeChannel()
	mgr := New(ch, nil)
	require.NoError(t, mgr.Initialize())

	var firstMatches, secondMatches int

	first := filter.NewSubscription(nil, func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondToPHUpdate {
			return false
		}
		firstMatches++
		return true
	})
	second := filter.NewSubscription(nil, func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondToPHUpdate {
			return false
		}
		secondMatches++
		return true
	})

	_, err := mgr.RegisterFilter(first)
	require.NoError(t, err)
	_, err = mgr.RegisterFilter(second)
	require.NoError(t, err)

	ch.Push(protocol.Message{Type: protocol.RespondToPHUpdate})
	ch.Push(protocol.Message{Type: protocol.RespondToPHUpdate})

	require.Equal(t, 2, firstMatches)
	require.Equal(t, 2, secondMatches)
}
