package provider

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/chia-network/leaflet-go/addresscodec"
	"github.com/chia-network/leaflet-go/config"
	"github.com/chia-network/leaflet-go/leafleterr"
	"github.com/chia-network/leaflet-go/protocol"
	"github.com/chia-network/leaflet-go/providertypes"
	"github.com/chia-network/leaflet-go/transport"
	"github.com/stretchr/testify/require"
)

// fakeChannel mirrors messagemanager's test double: inbound frames are
// pushed directly by the test, outbound frames are recorded.
type fakeChannel struct {
	mu     sync.Mutex
	sink   transport.Sink
	sent   []protocol.Message
	closed bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{}
}

func (f *fakeChannel) Open() error { return nil }

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

func (f *fakeChannel) Push(msg protocol.Message) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink != nil {
		sink(msg)
	}
}

func (f *fakeChannel) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig() config.Config {
	return config.Config{Host: "localhost", APIKey: "testkey", NetworkID: "testnet10"}
}

func newTestProvider(t *testing.T) (*Provider, *fakeChannel) {
	t.Helper()
	ch := newFakeChannel()
	p := NewWithChannel(testConfig(), ch, nil)
	require.NoError(t, p.Initialize())
	return p, ch
}

// waitForSend polls until at least one frame has gone out on ch. The
// provider's call path always issues its Send before blocking on the
// filter's completion, so this resolves almost immediately.
func waitForSend(t *testing.T, ch *fakeChannel) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ch.sentCount() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for outbound send")
}

func hexOf(b [32]byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0x0F]
	}
	return string(out)
}

func coinState(parent, ph [32]byte, amount int64, spentHeight *uint32) protocol.CoinStateWire {
	return protocol.CoinStateWire{
		ParentCoinInfo: parent,
		PuzzleHash:     ph,
		Amount:         big.NewInt(amount),
		SpentHeight:    spentHeight,
	}
}

func respondToPHUpdate(t *testing.T, puzzleHash [32]byte, states []protocol.CoinStateWire) protocol.Message {
	t.Helper()
	codec := protocol.RespondToPHUpdateCodec()
	msg, err := protocol.EncodeMessage(protocol.RespondToPHUpdate, codec, protocol.RespondToPHUpdateMsg{
		PuzzleHashes: [][32]byte{puzzleHash},
		CoinStates:   states,
	})
	require.NoError(t, err)
	return msg
}

func TestGetBalanceSumsUnspentCoins(t *testing.T) {
	p, ch := newTestProvider(t)
	var ph [32]byte
	ph[0] = 0xAA

	var wg sync.WaitGroup
	var balance *big.Int
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		balance, err = p.GetBalance(GetBalanceParams{PuzzleHash: "0x" + hexOf(ph)})
	}()

	waitForSend(t, ch)
	var parentA, parentB [32]byte
	parentA[1] = 1
	parentB[1] = 2
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{
		coinState(parentA, ph, 1000, nil),
		coinState(parentB, ph, 2000, nil),
	}))
	wg.Wait()

	require.NoError(t, err)
	require.Equal(t, big.NewInt(3000), balance)
}

func TestGetBalanceExcludesSpentCoins(t *testing.T) {
	p, ch := newTestProvider(t)
	var ph [32]byte
	ph[0] = 0xBB

	var wg sync.WaitGroup
	var balance *big.Int
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		balance, err = p.GetBalance(GetBalanceParams{PuzzleHash: "0x" + hexOf(ph)})
	}()

	waitForSend(t, ch)
	spentAt := uint32(500)
	var parentA, parentB [32]byte
	parentA[2] = 1
	parentB[2] = 2
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{
		coinState(parentA, ph, 1000, &spentAt),
		coinState(parentB, ph, 2000, nil),
	}))
	wg.Wait()

	require.NoError(t, err)
	require.Equal(t, big.NewInt(2000), balance)
}

func TestGetBalanceInvalidPuzzleHashReturnsNilWithoutSending(t *testing.T) {
	p, ch := newTestProvider(t)

	balance, err := p.GetBalance(GetBalanceParams{PuzzleHash: "not-hex"})
	require.NoError(t, err)
	require.Nil(t, balance)
	require.Equal(t, 0, ch.sentCount())
}

func TestGetBalancePrefersAddressOverPuzzleHash(t *testing.T) {
	p, ch := newTestProvider(t)
	codec := addresscodec.NewBech32Codec(config.AddressHRP)
	var ph [32]byte
	ph[3] = 7
	addr, err := codec.Encode(ph)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var balance *big.Int
	wg.Add(1)
	go func() {
		defer wg.Done()
		balance, err = p.GetBalance(GetBalanceParams{
			Address:    addr,
			PuzzleHash: "0x" + hexOf([32]byte{9, 9, 9}),
		})
	}()

	waitForSend(t, ch)
	ch.Push(respondToPHUpdate(t, ph, nil))
	wg.Wait()

	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance)
}

func TestGetPuzzleSolutionRejected(t *testing.T) {
	p, ch := newTestProvider(t)
	var coinName [32]byte
	coinName[0] = 1

	var wg sync.WaitGroup
	var sol *providertypes.PuzzleSolution
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		sol, err = p.GetPuzzleSolution(coinName, 123)
	}()

	waitForSend(t, ch)

	rejectCodec := protocol.RejectPuzzleSolutionCodec()
	rejectMsg, encErr := protocol.EncodeMessage(protocol.RejectPuzzleSolution, rejectCodec, protocol.RejectPuzzleSolutionMsg{
		CoinName: coinName, Height: 123,
	})
	require.NoError(t, encErr)
	ch.Push(rejectMsg)
	wg.Wait()

	require.NoError(t, err)
	require.Nil(t, sol)
}

func TestGetBlockHeaderTranslatesCorrectly(t *testing.T) {
	p, ch := newTestProvider(t)

	var wg sync.WaitGroup
	var header *providertypes.BlockHeader
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		header, err = p.GetBlockHeader(42)
	}()

	waitForSend(t, ch)

	respCodec := protocol.RespondBlockHeaderCodec()
	var headerHash [32]byte
	headerHash[0] = 0xCC
	respMsg, encErr := protocol.EncodeMessage(protocol.RespondBlockHeader, respCodec, protocol.RespondBlockHeaderMsg{
		RewardChainBlock: protocol.RewardChainBlockWire{
			Height:             42,
			Weight:             big.NewInt(9999),
			TotalIters:         big.NewInt(1234),
			IsTransactionBlock: true,
		},
		HeaderHash: headerHash,
		Timestamp:  1700000000,
	})
	require.NoError(t, encErr)
	ch.Push(respMsg)
	wg.Wait()

	require.NoError(t, err)
	require.NotNil(t, header)
	require.Equal(t, uint32(42), header.Height)
	require.Equal(t, headerHash, header.HeaderHash)
	require.True(t, header.IsTransactionBlock)
	require.Equal(t, big.NewInt(9999), header.Weight)
}

func TestGetCoinChildrenEmptyReturnsEmptySlice(t *testing.T) {
	p, ch := newTestProvider(t)
	var coinName [32]byte
	coinName[0] = 5

	var wg sync.WaitGroup
	var result []providertypes.CoinState
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err = p.GetCoinChildren(coinName)
	}()

	waitForSend(t, ch)

	respCodec := protocol.RespondChildrenCodec()
	respMsg, encErr := protocol.EncodeMessage(protocol.RespondChildren, respCodec, protocol.RespondChildrenMsg{})
	require.NoError(t, encErr)
	ch.Push(respMsg)
	wg.Wait()

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Empty(t, result)
}

func TestGetCoinRemovalsInvalidCoinIDReturnsNilWithoutSending(t *testing.T) {
	p, ch := newTestProvider(t)

	result, err := p.GetCoinRemovals(10, [32]byte{}, []string{"0xnothex"})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, 0, ch.sentCount())
}

func TestCloseCancelsPendingGetBalance(t *testing.T) {
	p, ch := newTestProvider(t)

	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err = p.GetBalance(GetBalanceParams{PuzzleHash: "0x" + hexOf([32]byte{1})})
	}()

	waitForSend(t, ch)
	require.NoError(t, p.Close())
	wg.Wait()

	require.Error(t, err)
	require.True(t, leafleterr.Is(err, leafleterr.Cancelled))
}

func TestSubscribeToPuzzleHashUpdatesDeliversEveryMatchingFrame(t *testing.T) {
	p, ch := newTestProvider(t)
	var ph [32]byte
	ph[4] = 3

	var mu sync.Mutex
	var received []providertypes.CoinState

	unsubscribe, err := p.SubscribeToPuzzleHashUpdates(ph, 0, func(cs providertypes.CoinState) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, cs)
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.Equal(t, 1, ch.sentCount())

	var parentA, parentB [32]byte
	parentA[5] = 1
	parentB[5] = 2
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{coinState(parentA, ph, 111, nil)}))
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{coinState(parentB, ph, 222, nil)}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	require.Equal(t, big.NewInt(111), received[0].Coin.Amount)
	require.Equal(t, big.NewInt(222), received[1].Coin.Amount)
}

func TestSubscribeToPuzzleHashUpdatesUnsubscribeStopsDelivery(t *testing.T) {
	p, ch := newTestProvider(t)
	var ph [32]byte
	ph[6] = 9

	var mu sync.Mutex
	var count int
	unsubscribe, err := p.SubscribeToPuzzleHashUpdates(ph, 0, func(cs providertypes.CoinState) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})
	require.NoError(t, err)

	var parent [32]byte
	parent[7] = 1
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{coinState(parent, ph, 1, nil)}))
	unsubscribe()
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{coinState(parent, ph, 2, nil)}))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, count)
}

func TestTwoSubscriptionsOnSamePuzzleHashBothReceiveEveryFrame(t *testing.T) {
	p, ch := newTestProvider(t)
	var ph [32]byte
	ph[8] = 4

	var mu sync.Mutex
	var firstCount, secondCount int

	unsubFirst, err := p.SubscribeToPuzzleHashUpdates(ph, 0, func(cs providertypes.CoinState) {
		mu.Lock()
		defer mu.Unlock()
		firstCount++
	})
	require.NoError(t, err)
	defer unsubFirst()

	unsubSecond, err := p.SubscribeToPuzzleHashUpdates(ph, 0, func(cs providertypes.CoinState) {
		mu.Lock()
		defer mu.Unlock()
		secondCount++
	})
	require.NoError(t, err)
	defer unsubSecond()

	require.Equal(t, 2, ch.sentCount())

	var parentA, parentB [32]byte
	parentA[9] = 1
	parentB[9] = 2
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{coinState(parentA, ph, 10, nil)}))
	ch.Push(respondToPHUpdate(t, ph, []protocol.CoinStateWire{coinState(parentB, ph, 20, nil)}))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, firstCount)
	require.Equal(t, 2, secondCount)
}

func TestUnsupportedOperationsReturnUnsupportedKind(t *testing.T) {
	p, _ := newTestProvider(t)

	_, err := p.GetAddress()
	require.True(t, leafleterr.Is(err, leafleterr.UnsupportedOperation))

	require.True(t, leafleterr.Is(p.Transfer(), leafleterr.UnsupportedOperation))
	require.True(t, leafleterr.Is(p.TransferCAT(), leafleterr.UnsupportedOperation))
	require.True(t, leafleterr.Is(p.AcceptOffer(), leafleterr.UnsupportedOperation))
	require.True(t, leafleterr.Is(p.SubscribeToAddressChanges(), leafleterr.UnsupportedOperation))
}

func TestGetNetworkIDReturnsConfiguredValue(t *testing.T) {
	p, _ := newTestProvider(t)
	require.Equal(t, "testnet10", p.GetNetworkID())
}
