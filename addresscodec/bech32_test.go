package addresscodec

import (
	"testing"

	"github.com/decred/dcrd/bech32"
	"github.com/stretchr/testify/require"
)

func TestBech32CodecRoundTrip(t *testing.T) {
	codec := NewBech32Codec("xch")

	var puzzleHash [32]byte
	for i := range puzzleHash {
		puzzleHash[i] = byte(i)
	}

	addr, err := codec.Encode(puzzleHash)
	require.NoError(t, err)

	decoded, ok := codec.Decode(addr)
	require.True(t, ok)
	require.Equal(t, puzzleHash, decoded)
}

func TestBech32CodecDecodeRejectsWrongHRP(t *testing.T) {
	codec := NewBech32Codec("xch")

	var puzzleHash [32]byte
	puzzleHash[0] = 0xab

	other := NewBech32Codec("txch")
	addr, err := other.Encode(puzzleHash)
	require.NoError(t, err)

	_, ok := codec.Decode(addr)
	require.False(t, ok)
}

func TestBech32CodecDecodeRejectsPlainBech32(t *testing.T) {
	codec := NewBech32Codec("xch")

	var puzzleHash [32]byte
	puzzleHash[0] = 0xcd

	converted, err := bech32.ConvertBits(puzzleHash[:], 8, 5, true)
	require.NoError(t, err)

	// Encode (not EncodeM) produces a bech32 checksum, not bech32m; a
	// codec that only accepts bech32m addresses must reject it.
	addr, err := bech32.Encode(codec.HRP, converted)
	require.NoError(t, err)

	_, ok := codec.Decode(addr)
	require.False(t, ok)
}

func TestBech32CodecDecodeRejectsMalformedInput(t *testing.T) {
	codec := NewBech32Codec("xch")

	for _, addr := range []string{
		"",
		"not a bech32 address",
		"xch1notvalidchecksum",
	} {
		_, ok := codec.Decode(addr)
		require.False(t, ok, "expected %q to be rejected", addr)
	}
}
