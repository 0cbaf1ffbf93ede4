// Package coinid computes the Chia coin-id commitment used to correlate
// coin-state frames with subscriptions keyed by coin rather than by
// puzzle hash.
package coinid

import (
	"crypto/sha256"
	"math/big"
)

// ID is the 32-byte sha256 commitment identifying a coin.
type ID [32]byte

// Compute returns the coin id for a coin identified by its parent coin
// info, puzzle hash, and amount:
//
//	coin_id = sha256(parent_coin_info || puzzle_hash || canonical_amount_bytes)
//
// canonical_amount_bytes is the minimal big-endian two's-complement style
// encoding Chia uses for CLVM integers: the shortest byte string that
// round-trips through a signed big-endian decode, left-padded with a
// single 0x00 byte when the high bit of the minimal unsigned encoding
// would otherwise be mistaken for a sign bit. Since a coin amount is
// always non-negative this only ever adds at most one padding byte.
func Compute(parentCoinInfo [32]byte, puzzleHash [32]byte, amount *big.Int) ID {
	h := sha256.New()
	h.Write(parentCoinInfo[:])
	h.Write(puzzleHash[:])
	h.Write(CanonicalAmountBytes(amount))

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// CanonicalAmountBytes returns the canonical CLVM-integer encoding of a
// non-negative amount: big-endian, no leading zero bytes, except that a
// single 0x00 byte is prefixed when the most significant bit of the
// minimal encoding is set (so the value isn't misread as negative), and
// the empty byte string represents zero.
func CanonicalAmountBytes(amount *big.Int) []byte {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}

	b := amount.Bytes()
	if b[0]&0x80 != 0 {
		padded := make([]byte, len(b)+1)
		copy(padded[1:], b)
		return padded
	}
	return b
}
