// Package provider implements the Leaflet query facade described in
// spec.md §4.3: typed operations that build a protocol request, install a
// matching Filter on the MessageManager, await its completion, and
// translate the response into the public providertypes data model. The
// Leaflet variant never holds keys, so every signing/transfer/offer
// operation is UnsupportedOperation rather than a stub.
package provider

import (
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chia-network/leaflet-go/addresscodec"
	"github.com/chia-network/leaflet-go/coinid"
	"github.com/chia-network/leaflet-go/config"
	"github.com/chia-network/leaflet-go/filter"
	"github.com/chia-network/leaflet-go/leafleterr"
	"github.com/chia-network/leaflet-go/messagemanager"
	"github.com/chia-network/leaflet-go/metrics"
	"github.com/chia-network/leaflet-go/protocol"
	"github.com/chia-network/leaflet-go/providertypes"
	"github.com/chia-network/leaflet-go/transport"
)

// Provider is the Leaflet light-client facade: one Provider per
// connection to a single full node.
type Provider struct {
	cfg       config.Config
	manager   *messagemanager.MessageManager
	channel   transport.MessageChannel
	addrCodec addresscodec.Bech32Codec

	connected atomic.Bool
}

// New validates cfg and builds an unopened Provider backed by a
// WebSocket MessageChannel. Call Initialize before issuing any other
// operation.
func New(cfg config.Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	channel := transport.NewWSChannel(transport.WSConfig{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})

	return NewWithChannel(cfg, channel, nil), nil
}

// NewWithChannel builds a Provider over an already-constructed
// MessageChannel, bypassing WebSocket dialing. Tests use this to drive
// the Provider over a fake channel.
func NewWithChannel(cfg config.Config, channel transport.MessageChannel, m *metrics.Collectors) *Provider {
	return &Provider{
		cfg:       cfg,
		manager:   messagemanager.New(channel, m),
		channel:   channel,
		addrCodec: addresscodec.NewBech32Codec(config.AddressHRP),
	}
}

// Initialize opens the transport and starts the message manager.
func (p *Provider) Initialize() error {
	if err := p.manager.Initialize(); err != nil {
		return err
	}
	p.connected.Store(true)
	log.Infof("provider initialized against %s:%d (%s)", p.cfg.Host, p.cfg.Port, p.cfg.NetworkID)
	return nil
}

// Close shuts the provider down. After Close, every request and
// subscription operation fails with NotConnected; GetNetworkID,
// IsConnected and GetBlockNumber keep answering, and the unsupported
// operations keep returning UnsupportedOperation.
func (p *Provider) Close() error {
	p.connected.Store(false)
	return p.manager.Close()
}

// GetNetworkID returns the configured network id. It never fails, even
// while disconnected.
func (p *Provider) GetNetworkID() string {
	return p.cfg.NetworkID
}

// IsConnected reports whether Initialize has succeeded and Close has not
// yet been called.
func (p *Provider) IsConnected() bool {
	return p.connected.Load()
}

func (p *Provider) requireConnected() error {
	if !p.connected.Load() {
		return leafleterr.New(leafleterr.NotConnected, "provider is not connected")
	}
	return nil
}

// GetBlockNumber returns the cached latest peak height. It does not send
// a frame and never fails while connected.
func (p *Provider) GetBlockNumber() *uint32 {
	return p.manager.PeakHeight()
}

func containsHash(haystack []([32]byte), needle [32]byte) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func translateCoinState(w protocol.CoinStateWire) providertypes.CoinState {
	return providertypes.CoinState{
		Coin: providertypes.Coin{
			ParentCoinInfo: w.ParentCoinInfo,
			PuzzleHash:     w.PuzzleHash,
			Amount:         w.Amount,
		},
		SpentHeight:   w.SpentHeight,
		CreatedHeight: w.CreatedHeight,
	}
}

func translateCoinStates(ws []protocol.CoinStateWire) []providertypes.CoinState {
	out := make([]providertypes.CoinState, len(ws))
	for i, w := range ws {
		out[i] = translateCoinState(w)
	}
	return out
}

func translateBlockHeader(msg protocol.RespondBlockHeaderMsg) providertypes.BlockHeader {
	return providertypes.BlockHeader{
		Height:             msg.RewardChainBlock.Height,
		HeaderHash:         msg.HeaderHash,
		PrevHeaderHash:     msg.PrevHeaderHash,
		Weight:             msg.RewardChainBlock.Weight,
		TotalIters:         msg.RewardChainBlock.TotalIters,
		Timestamp:          msg.Timestamp,
		IsTransactionBlock: msg.RewardChainBlock.IsTransactionBlock,
	}
}

// GetBalanceParams are the inputs to GetBalance. Address is used when it
// starts with the configured HRP; otherwise PuzzleHash is decoded as hex.
// If the value used does not yield a valid 32-byte puzzle hash,
// GetBalance returns nil without sending a frame.
type GetBalanceParams struct {
	Address    string
	PuzzleHash string
	MinHeight  uint32
}

// GetBalance implements spec.md §4.3.2. Registering interest has a
// side effect on the full node (it will push future updates for this
// puzzle hash) even though this call only waits for the first snapshot —
// a deliberate protocol tradeoff, not an oversight.
func (p *Provider) GetBalance(params GetBalanceParams) (*big.Int, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	puzzleHash, ok := p.resolvePuzzleHash(params.Address, params.PuzzleHash)
	if !ok {
		return nil, nil
	}

	reqCodec := protocol.RegisterInterestInPuzzleHashCodec()
	req, err := protocol.EncodeMessage(
		protocol.RegisterInterestInPuzzleHash, reqCodec,
		protocol.RegisterInterestInPuzzleHashMsg{
			PuzzleHashes: [][32]byte{puzzleHash},
			MinHeight:    params.MinHeight,
		},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondToPHUpdateCodec()
	var resp protocol.RespondToPHUpdateMsg

	consume := func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondToPHUpdate {
			return false
		}
		decoded, err := respCodec.Decode(msg.Data)
		if err != nil {
			log.Errorf("dropping malformed respond_to_ph_update: %v", err)
			return false
		}
		if !containsHash(decoded.PuzzleHashes, puzzleHash) {
			return false
		}
		resp = decoded
		return true
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, cs := range resp.CoinStates {
		if cs.PuzzleHash != puzzleHash {
			continue
		}
		if cs.SpentHeight != nil {
			continue
		}
		total.Add(total, cs.Amount)
	}
	return total, nil
}

// resolvePuzzleHash implements spec.md §4.3.2 step 1: prefer a
// bech32m address under the configured HRP, falling back to a raw hex
// puzzle hash.
func (p *Provider) resolvePuzzleHash(address, puzzleHash string) ([32]byte, bool) {
	if address != "" && strings.HasPrefix(address, p.addrCodec.HRP) {
		return p.addrCodec.Decode(address)
	}
	return addresscodec.DecodeHex32(puzzleHash)
}

// sendAndAwait registers a one-shot filter for req (which may be nil for
// no outbound send) with predicate consume, and blocks for its
// completion.
func (p *Provider) sendAndAwait(req *protocol.Message, consume filter.Consumer, maxWait time.Duration) error {
	f := filter.NewOneShot(req, consume, maxWait)
	completion, err := p.manager.RegisterFilter(f)
	if err != nil {
		return err
	}
	return completion.Wait()
}

// CoinUpdateCallback receives every coin state relevant to a
// subscription, in inbound-frame order.
type CoinUpdateCallback func(providertypes.CoinState)

// SubscribeToPuzzleHashUpdates implements spec.md §4.3.3. It both
// registers server-side interest in puzzleHash and installs a persistent
// filter delivering every future matching update to cb. The returned
// func deregisters the subscription; it does not unregister server-side
// interest, matching the one-way "register_interest" side effect
// documented for GetBalance.
func (p *Provider) SubscribeToPuzzleHashUpdates(puzzleHash [32]byte, minHeight uint32, cb CoinUpdateCallback) (func(), error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	reqCodec := protocol.RegisterInterestInPuzzleHashCodec()
	req, err := protocol.EncodeMessage(
		protocol.RegisterInterestInPuzzleHash, reqCodec,
		protocol.RegisterInterestInPuzzleHashMsg{
			PuzzleHashes: [][32]byte{puzzleHash},
			MinHeight:    minHeight,
		},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondToPHUpdateCodec()
	consume := func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondToPHUpdate {
			return false
		}
		decoded, err := respCodec.Decode(msg.Data)
		if err != nil {
			log.Errorf("dropping malformed respond_to_ph_update: %v", err)
			return false
		}
		if !containsHash(decoded.PuzzleHashes, puzzleHash) {
			return false
		}
		for _, cs := range decoded.CoinStates {
			if cs.PuzzleHash != puzzleHash {
				continue
			}
			cb(translateCoinState(cs))
		}
		return true
	}

	sub := filter.NewSubscription(&req, consume)
	if _, err := p.manager.RegisterFilter(sub); err != nil {
		return nil, err
	}

	return func() { p.manager.Unsubscribe(sub.ID()) }, nil
}

// SubscribeToCoinUpdates implements spec.md §4.3.3 for the coin-id-keyed
// variant: matching is by coin_id(coin) equality rather than puzzle-hash
// equality.
func (p *Provider) SubscribeToCoinUpdates(coinID coinid.ID, minHeight uint32, cb CoinUpdateCallback) (func(), error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	reqCodec := protocol.RegisterInterestInCoinCodec()
	req, err := protocol.EncodeMessage(
		protocol.RegisterInterestInCoin, reqCodec,
		protocol.RegisterInterestInCoinMsg{
			CoinIDs:   [][32]byte{coinID},
			MinHeight: minHeight,
		},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondToCoinUpdateCodec()
	consume := func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondToCoinUpdate {
			return false
		}
		decoded, err := respCodec.Decode(msg.Data)
		if err != nil {
			log.Errorf("dropping malformed respond_to_coin_update: %v", err)
			return false
		}
		if !containsHash(decoded.CoinIDs, coinID) {
			return false
		}
		for _, cs := range decoded.CoinStates {
			state := translateCoinState(cs)
			if state.CoinID() != coinID {
				continue
			}
			cb(state)
		}
		return true
	}

	sub := filter.NewSubscription(&req, consume)
	if _, err := p.manager.RegisterFilter(sub); err != nil {
		return nil, err
	}

	return func() { p.manager.Unsubscribe(sub.ID()) }, nil
}

// GetPuzzleSolution implements spec.md §4.3.4.
func (p *Provider) GetPuzzleSolution(coinName [32]byte, height uint32) (*providertypes.PuzzleSolution, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	reqCodec := protocol.RequestPuzzleSolutionCodec()
	req, err := protocol.EncodeMessage(
		protocol.RequestPuzzleSolution, reqCodec,
		protocol.RequestPuzzleSolutionMsg{CoinName: coinName, Height: height},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondPuzzleSolutionCodec()
	rejectCodec := protocol.RejectPuzzleSolutionCodec()

	var result *providertypes.PuzzleSolution
	consume := func(msg protocol.Message) bool {
		switch msg.Type {
		case protocol.RespondPuzzleSolution:
			decoded, err := respCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed respond_puzzle_solution: %v", err)
				return false
			}
			if decoded.CoinName != coinName || decoded.Height != height {
				return false
			}
			result = &providertypes.PuzzleSolution{
				CoinName:     decoded.CoinName,
				Height:       decoded.Height,
				PuzzleReveal: decoded.PuzzleReveal,
				Solution:     decoded.Solution,
			}
			return true
		case protocol.RejectPuzzleSolution:
			decoded, err := rejectCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed reject_puzzle_solution: %v", err)
				return false
			}
			if decoded.CoinName != coinName || decoded.Height != height {
				return false
			}
			result = nil
			return true
		default:
			return false
		}
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCoinChildren implements spec.md §4.3.5. As documented in
// spec.md §9 (open question), an empty response list and a response
// whose first child doesn't match coinName both translate to []: the
// latter may in principle be swallowing a protocol-level error, but the
// distilled spec's behavior is preserved unless clarified.
func (p *Provider) GetCoinChildren(coinName [32]byte) ([]providertypes.CoinState, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	reqCodec := protocol.RequestChildrenCodec()
	req, err := protocol.EncodeMessage(
		protocol.RequestChildren, reqCodec,
		protocol.RequestChildrenMsg{CoinName: coinName},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondChildrenCodec()
	var result []providertypes.CoinState

	consume := func(msg protocol.Message) bool {
		if msg.Type != protocol.RespondChildren {
			return false
		}
		decoded, err := respCodec.Decode(msg.Data)
		if err != nil {
			log.Errorf("dropping malformed respond_children: %v", err)
			return false
		}
		if len(decoded.CoinStates) == 0 {
			result = []providertypes.CoinState{}
			return true
		}
		if decoded.CoinStates[0].ParentCoinInfo != coinName {
			result = []providertypes.CoinState{}
			return true
		}
		result = translateCoinStates(decoded.CoinStates)
		return true
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBlockHeader implements spec.md §4.3.6.
func (p *Provider) GetBlockHeader(height uint32) (*providertypes.BlockHeader, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	reqCodec := protocol.RequestBlockHeaderCodec()
	req, err := protocol.EncodeMessage(
		protocol.RequestBlockHeader, reqCodec,
		protocol.RequestBlockHeaderMsg{Height: height},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondBlockHeaderCodec()
	rejectCodec := protocol.RejectHeaderRequestCodec()

	var result *providertypes.BlockHeader
	consume := func(msg protocol.Message) bool {
		switch msg.Type {
		case protocol.RespondBlockHeader:
			decoded, err := respCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed respond_block_header: %v", err)
				return false
			}
			if decoded.RewardChainBlock.Height != height {
				return false
			}
			h := translateBlockHeader(decoded)
			result = &h
			return true
		case protocol.RejectHeaderRequest:
			decoded, err := rejectCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed reject_header_request: %v", err)
				return false
			}
			if decoded.Height != height {
				return false
			}
			result = nil
			return true
		default:
			return false
		}
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBlocksHeaders implements spec.md §4.3.7.
func (p *Provider) GetBlocksHeaders(startHeight, endHeight uint32) ([]providertypes.BlockHeader, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	reqCodec := protocol.RequestHeaderBlocksCodec()
	req, err := protocol.EncodeMessage(
		protocol.RequestHeaderBlocks, reqCodec,
		protocol.RequestHeaderBlocksMsg{StartHeight: startHeight, EndHeight: endHeight},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondHeaderBlocksCodec()
	rejectCodec := protocol.RejectHeaderBlocksCodec()

	var result []providertypes.BlockHeader
	consume := func(msg protocol.Message) bool {
		switch msg.Type {
		case protocol.RespondHeaderBlocks:
			decoded, err := respCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed respond_header_blocks: %v", err)
				return false
			}
			if decoded.StartHeight != startHeight || decoded.EndHeight != endHeight {
				return false
			}
			result = make([]providertypes.BlockHeader, len(decoded.Headers))
			for i, h := range decoded.Headers {
				result[i] = translateBlockHeader(h)
				result[i].Height = startHeight + uint32(i)
			}
			return true
		case protocol.RejectHeaderBlocks:
			decoded, err := rejectCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed reject_header_blocks: %v", err)
				return false
			}
			if decoded.StartHeight != startHeight || decoded.EndHeight != endHeight {
				return false
			}
			result = nil
			return true
		default:
			return false
		}
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCoinRemovals implements spec.md §4.3.8's removals variant: every
// coinID must be valid hex or the call returns nil without sending a
// frame. Only entries whose Coin is present (non-nil) are returned.
func (p *Provider) GetCoinRemovals(height uint32, headerHash [32]byte, coinIDs []string) ([]providertypes.CoinState, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	names, ok := decodeHashList(coinIDs)
	if !ok {
		return nil, nil
	}

	reqCodec := protocol.RequestRemovalsCodec()
	req, err := protocol.EncodeMessage(
		protocol.RequestRemovals, reqCodec,
		protocol.RequestRemovalsMsg{Height: height, HeaderHash: headerHash, CoinNames: names},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondRemovalsCodec()
	rejectCodec := protocol.RejectRemovalsRequestCodec()

	var result []providertypes.CoinState
	consume := func(msg protocol.Message) bool {
		switch msg.Type {
		case protocol.RespondRemovals:
			decoded, err := respCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed respond_removals: %v", err)
				return false
			}
			if decoded.Height != height || decoded.HeaderHash != headerHash {
				return false
			}
			result = nil
			for _, entry := range decoded.Removals {
				if entry.Coin == nil {
					continue
				}
				result = append(result, translateCoinState(*entry.Coin))
			}
			return true
		case protocol.RejectRemovalsRequest:
			decoded, err := rejectCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed reject_removals_request: %v", err)
				return false
			}
			if decoded.Height != height || decoded.HeaderHash != headerHash {
				return false
			}
			result = nil
			return true
		default:
			return false
		}
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCoinAdditions implements spec.md §4.3.8's additions variant,
// flattening every entry's coin list into one slice.
func (p *Provider) GetCoinAdditions(height uint32, headerHash [32]byte, puzzleHashStrs []string) ([]providertypes.CoinState, error) {
	if err := p.requireConnected(); err != nil {
		return nil, err
	}

	puzzleHashes, ok := decodeHashList(puzzleHashStrs)
	if !ok {
		return nil, nil
	}

	reqCodec := protocol.RequestAdditionsCodec()
	req, err := protocol.EncodeMessage(
		protocol.RequestAdditions, reqCodec,
		protocol.RequestAdditionsMsg{Height: height, HeaderHash: headerHash, PuzzleHashes: puzzleHashes},
	)
	if err != nil {
		return nil, leafleterr.Wrap(leafleterr.InvalidInput, err)
	}

	respCodec := protocol.RespondAdditionsCodec()
	rejectCodec := protocol.RejectAdditionsRequestCodec()

	var result []providertypes.CoinState
	consume := func(msg protocol.Message) bool {
		switch msg.Type {
		case protocol.RespondAdditions:
			decoded, err := respCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed respond_additions: %v", err)
				return false
			}
			if decoded.Height != height || decoded.HeaderHash != headerHash {
				return false
			}
			result = nil
			for _, entry := range decoded.Additions {
				result = append(result, translateCoinStates(entry.Coins)...)
			}
			return true
		case protocol.RejectAdditionsRequest:
			decoded, err := rejectCodec.Decode(msg.Data)
			if err != nil {
				log.Errorf("dropping malformed reject_additions_request: %v", err)
				return false
			}
			if decoded.Height != height || decoded.HeaderHash != headerHash {
				return false
			}
			result = nil
			return true
		default:
			return false
		}
	}

	if err := p.sendAndAwait(&req, consume, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// decodeHashList validates every entry in hexes as a 32-byte hex value.
// It returns ok=false the moment any entry fails to validate, matching
// spec.md §4.3.8's "if any is invalid, return null without sending".
func decodeHashList(hexes []string) ([][32]byte, bool) {
	if len(hexes) == 0 {
		return nil, true
	}
	out := make([][32]byte, len(hexes))
	for i, h := range hexes {
		hash, ok := addresscodec.DecodeHex32(h)
		if !ok {
			return nil, false
		}
		out[i] = hash
	}
	return out, true
}

// The following operations are explicitly unsupported: the Leaflet
// provider never holds keys, per spec.md §1 and §4.3.9.

// GetAddress is unsupported.
func (p *Provider) GetAddress() (string, error) {
	return "", leafleterr.New(leafleterr.UnsupportedOperation, "getAddress")
}

// Transfer is unsupported.
func (p *Provider) Transfer() error {
	return leafleterr.New(leafleterr.UnsupportedOperation, "transfer")
}

// TransferCAT is unsupported.
func (p *Provider) TransferCAT() error {
	return leafleterr.New(leafleterr.UnsupportedOperation, "transferCAT")
}

// AcceptOffer is unsupported.
func (p *Provider) AcceptOffer() error {
	return leafleterr.New(leafleterr.UnsupportedOperation, "acceptOffer")
}

// SubscribeToAddressChanges is unsupported.
func (p *Provider) SubscribeToAddressChanges() error {
	return leafleterr.New(leafleterr.UnsupportedOperation, "subscribeToAddressChanges")
}
