// Package protocol defines the closed enumeration of wallet-protocol
// message types, the envelope they travel in, and the typed payload
// structs the Provider builds and decodes. Byte-level encoding of those
// payloads is delegated to a Codec, an external collaborator per the
// adapter's scope (see the module's SPEC_FULL.md §4.5): this package
// ships the thinnest binary Codec needed to run the module end-to-end,
// not a competing definition of the canonical Chia wallet wire format.
package protocol

import "math/big"

// MessageType is the closed set of protocol message codes the adapter
// ever sends or recognizes in a response.
type MessageType uint8

const (
	NewPeakWallet MessageType = iota + 1
	RegisterInterestInPuzzleHash
	RespondToPHUpdate
	RegisterInterestInCoin
	RespondToCoinUpdate
	RequestPuzzleSolution
	RespondPuzzleSolution
	RejectPuzzleSolution
	RequestChildren
	RespondChildren
	RequestBlockHeader
	RespondBlockHeader
	RejectHeaderRequest
	RequestHeaderBlocks
	RespondHeaderBlocks
	RejectHeaderBlocks
	RequestRemovals
	RespondRemovals
	RejectRemovalsRequest
	RequestAdditions
	RespondAdditions
	RejectAdditionsRequest
)

// String gives a readable name for logging, matching the snake_case names
// used throughout spec.md.
func (t MessageType) String() string {
	switch t {
	case NewPeakWallet:
		return "new_peak_wallet"
	case RegisterInterestInPuzzleHash:
		return "register_interest_in_puzzle_hash"
	case RespondToPHUpdate:
		return "respond_to_ph_update"
	case RegisterInterestInCoin:
		return "register_interest_in_coin"
	case RespondToCoinUpdate:
		return "respond_to_coin_update"
	case RequestPuzzleSolution:
		return "request_puzzle_solution"
	case RespondPuzzleSolution:
		return "respond_puzzle_solution"
	case RejectPuzzleSolution:
		return "reject_puzzle_solution"
	case RequestChildren:
		return "request_children"
	case RespondChildren:
		return "respond_children"
	case RequestBlockHeader:
		return "request_block_header"
	case RespondBlockHeader:
		return "respond_block_header"
	case RejectHeaderRequest:
		return "reject_header_request"
	case RequestHeaderBlocks:
		return "request_header_blocks"
	case RespondHeaderBlocks:
		return "respond_header_blocks"
	case RejectHeaderBlocks:
		return "reject_header_blocks"
	case RequestRemovals:
		return "request_removals"
	case RespondRemovals:
		return "respond_removals"
	case RejectRemovalsRequest:
		return "reject_removals_request"
	case RequestAdditions:
		return "request_additions"
	case RespondAdditions:
		return "respond_additions"
	case RejectAdditionsRequest:
		return "reject_additions_request"
	default:
		return "unknown"
	}
}

// Message is the envelope carried over the MessageChannel: a type code and
// an opaque, codec-encoded payload. There is no correlation id; see
// SPEC_FULL.md §4.2 for how the adapter demultiplexes responses without
// one.
type Message struct {
	Type MessageType
	Data []byte
}

// CoinStateWire is the wire-shaped coin/spend-height/created-height tuple
// used by every response that carries coin states.
type CoinStateWire struct {
	ParentCoinInfo [32]byte
	PuzzleHash     [32]byte
	Amount         *big.Int
	SpentHeight    *uint32
	CreatedHeight  *uint32
}

// NewPeakWalletMsg announces the server's current chain tip.
type NewPeakWalletMsg struct {
	Height     uint32
	HeaderHash [32]byte
}

// RegisterInterestInPuzzleHashMsg requests a one-time snapshot (plus
// ongoing push updates) for the given puzzle hashes starting at MinHeight.
type RegisterInterestInPuzzleHashMsg struct {
	PuzzleHashes []([32]byte)
	MinHeight    uint32
}

// RespondToPHUpdateMsg is the server's response/push for a puzzle-hash
// registration.
type RespondToPHUpdateMsg struct {
	PuzzleHashes []([32]byte)
	MinHeight    uint32
	CoinStates   []CoinStateWire
}

// RegisterInterestInCoinMsg requests ongoing push updates for the given
// coin ids starting at MinHeight.
type RegisterInterestInCoinMsg struct {
	CoinIDs   []([32]byte)
	MinHeight uint32
}

// RespondToCoinUpdateMsg is the server's push for a coin-id registration.
type RespondToCoinUpdateMsg struct {
	CoinIDs    []([32]byte)
	MinHeight  uint32
	CoinStates []CoinStateWire
}

// RequestPuzzleSolutionMsg asks for the puzzle reveal and solution of a
// coin spent at a known height.
type RequestPuzzleSolutionMsg struct {
	CoinName [32]byte
	Height   uint32
}

// RespondPuzzleSolutionMsg carries the requested puzzle reveal/solution.
type RespondPuzzleSolutionMsg struct {
	CoinName     [32]byte
	Height       uint32
	PuzzleReveal []byte
	Solution     []byte
}

// RejectPuzzleSolutionMsg rejects a RequestPuzzleSolutionMsg.
type RejectPuzzleSolutionMsg struct {
	CoinName [32]byte
	Height   uint32
}

// RequestChildrenMsg asks for the children of a coin.
type RequestChildrenMsg struct {
	CoinName [32]byte
}

// RespondChildrenMsg carries a coin's children, if any.
type RespondChildrenMsg struct {
	CoinStates []CoinStateWire
}

// RequestBlockHeaderMsg asks for the header at a given height.
type RequestBlockHeaderMsg struct {
	Height uint32
}

// RewardChainBlockWire is the portion of a full block header the adapter
// cares about.
type RewardChainBlockWire struct {
	Height             uint32
	Weight             *big.Int
	TotalIters         *big.Int
	IsTransactionBlock bool
}

// RespondBlockHeaderMsg carries a single block header.
type RespondBlockHeaderMsg struct {
	RewardChainBlock RewardChainBlockWire
	HeaderHash        [32]byte
	PrevHeaderHash     [32]byte
	Timestamp          uint64
}

// RejectHeaderRequestMsg rejects a RequestBlockHeaderMsg.
type RejectHeaderRequestMsg struct {
	Height uint32
}

// RequestHeaderBlocksMsg asks for a contiguous range of block headers.
type RequestHeaderBlocksMsg struct {
	StartHeight uint32
	EndHeight   uint32
}

// RespondHeaderBlocksMsg carries StartHeight..EndHeight headers, in order.
type RespondHeaderBlocksMsg struct {
	StartHeight uint32
	EndHeight   uint32
	Headers     []RespondBlockHeaderMsg
}

// RejectHeaderBlocksMsg rejects a RequestHeaderBlocksMsg.
type RejectHeaderBlocksMsg struct {
	StartHeight uint32
	EndHeight   uint32
}

// HashToCoinsEntry is one entry of the association structure returned by
// removals/additions responses: a key (coin id or puzzle hash) mapped to a
// merkle hash and either a single coin (removals) or a list of coins
// (additions).
type HashToCoinsEntry struct {
	Key        [32]byte
	MerkleHash [32]byte
	Coin       *CoinStateWire   // set for removals; nil if not found
	Coins      []CoinStateWire // set for additions
}

// RequestRemovalsMsg asks which of the given coin ids were removed
// (spent) in the block at Height/HeaderHash. A nil CoinNames means "all
// removals in the block".
type RequestRemovalsMsg struct {
	Height     uint32
	HeaderHash [32]byte
	CoinNames  [][32]byte
}

// RespondRemovalsMsg carries the removals association structure.
type RespondRemovalsMsg struct {
	Height     uint32
	HeaderHash [32]byte
	Removals   []HashToCoinsEntry
}

// RejectRemovalsRequestMsg rejects a RequestRemovalsMsg.
type RejectRemovalsRequestMsg struct {
	Height     uint32
	HeaderHash [32]byte
}

// RequestAdditionsMsg asks which coins were created for the given puzzle
// hashes in the block at Height/HeaderHash. A nil PuzzleHashes means "all
// additions in the block".
type RequestAdditionsMsg struct {
	Height       uint32
	HeaderHash   [32]byte
	PuzzleHashes [][32]byte
}

// RespondAdditionsMsg carries the additions association structure.
type RespondAdditionsMsg struct {
	Height     uint32
	HeaderHash [32]byte
	Additions  []HashToCoinsEntry
}

// RejectAdditionsRequestMsg rejects a RequestAdditionsMsg.
type RejectAdditionsRequestMsg struct {
	Height     uint32
	HeaderHash [32]byte
}
