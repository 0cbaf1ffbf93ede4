// Package providertypes is the public data model returned by Provider
// operations: Coin, CoinState, BlockHeader, and PuzzleSolution.
package providertypes

import (
	"math/big"

	"github.com/chia-network/leaflet-go/coinid"
)

// Coin is a single UTXO on the Chia chain.
type Coin struct {
	ParentCoinInfo [32]byte
	PuzzleHash     [32]byte
	Amount         *big.Int
}

// ID returns this coin's sha256 commitment, as defined by coinid.Compute.
func (c Coin) ID() coinid.ID {
	return coinid.Compute(c.ParentCoinInfo, c.PuzzleHash, c.Amount)
}

// CoinState pairs a Coin with its confirmation / spend heights. A nil
// height means the corresponding event has not happened (yet).
type CoinState struct {
	Coin          Coin
	SpentHeight   *uint32
	CreatedHeight *uint32
}

// CoinID returns Coin.ID(), computed afresh on each call, for convenience
// at call sites that only have a CoinState in hand (subscription predicates, additions/removals
// translation).
func (cs CoinState) CoinID() coinid.ID {
	return cs.Coin.ID()
}

// BlockHeader is the translated form of a reward_chain_block response.
type BlockHeader struct {
	Height             uint32
	HeaderHash         [32]byte
	PrevHeaderHash     [32]byte
	Weight             *big.Int
	TotalIters         *big.Int
	Timestamp          uint64
	IsTransactionBlock bool
}

// PuzzleSolution is the translated form of a respond_puzzle_solution
// payload.
type PuzzleSolution struct {
	CoinName      [32]byte
	Height        uint32
	PuzzleReveal  []byte
	Solution      []byte
}
