// Package addresscodec implements the AddressCodec external contract:
// converting between bech32m-encoded Chia addresses and 32-byte puzzle
// hashes. It is a thin, narrow wrapper around
// github.com/decred/dcrd/bech32 (already a dependency of the teacher
// repo this module was adapted from), which implements both the
// original bech32 checksum and the bech32m (BIP-350) variant Chia
// addresses use.
package addresscodec

import (
	"github.com/decred/dcrd/bech32"
)

// AddressCodec validates and converts between a bech32m address string
// and its 32-byte puzzle hash.
type AddressCodec interface {
	// Decode converts a bech32m address to its puzzle hash. ok is false
	// if addr is not well-formed bech32m, has the wrong HRP, or doesn't
	// decode to exactly 32 bytes.
	Decode(addr string) (puzzleHash [32]byte, ok bool)

	// Encode converts a puzzle hash to a bech32m address under this
	// codec's HRP.
	Encode(puzzleHash [32]byte) (addr string, err error)
}

// Bech32Codec is the concrete AddressCodec used by the Leaflet provider.
type Bech32Codec struct {
	// HRP is the human-readable part expected/produced by this codec
	// ("xch" for Chia mainnet and testnets alike).
	HRP string
}

// NewBech32Codec returns a Bech32Codec for the given HRP.
func NewBech32Codec(hrp string) Bech32Codec {
	return Bech32Codec{HRP: hrp}
}

// Decode implements AddressCodec.
func (c Bech32Codec) Decode(addr string) ([32]byte, bool) {
	var puzzleHash [32]byte

	hrp, data, encoding, err := bech32.DecodeGeneric(addr)
	if err != nil || encoding != bech32.EncodingBECH32M {
		return puzzleHash, false
	}
	if hrp != c.HRP {
		return puzzleHash, false
	}

	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil || len(converted) != 32 {
		return puzzleHash, false
	}

	copy(puzzleHash[:], converted)
	return puzzleHash, true
}

// Encode implements AddressCodec.
func (c Bech32Codec) Encode(puzzleHash [32]byte) (string, error) {
	converted, err := bech32.ConvertBits(puzzleHash[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(c.HRP, converted)
}
