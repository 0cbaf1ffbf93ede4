package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/chia-network/leaflet-go/leafleterr"
)

// Codec encodes and decodes a single typed payload to and from the bytes
// carried in a Message's Data field. Implementations are swappable; the
// Provider and MessageManager never depend on the concrete binary layout,
// only on this interface.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// BinaryCodec implements Codec[T] for every protocol struct in this
// package using a fixed, hand-written encoding/binary layout, in the same
// spirit as the teacher's github.com/decred/dcrd/wire types: no
// reflection, explicit field-by-field Read/Write.
type BinaryCodec[T any] struct {
	encode func(*bytes.Buffer, T) error
	decode func(*bytes.Reader) (T, error)
}

// Encode implements Codec[T].
func (c BinaryCodec[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encode(&buf, v); err != nil {
		return nil, leafleterr.Wrap(leafleterr.DecodeError, err)
	}
	return buf.Bytes(), nil
}

// Decode implements Codec[T].
func (c BinaryCodec[T]) Decode(b []byte) (T, error) {
	v, err := c.decode(bytes.NewReader(b))
	if err != nil {
		return v, leafleterr.Wrap(leafleterr.DecodeError, err)
	}
	return v, nil
}

func writeHash(buf *bytes.Buffer, h [32]byte) error {
	_, err := buf.Write(h[:])
	return err
}

func readHash(r *bytes.Reader) ([32]byte, error) {
	var h [32]byte
	_, err := io.ReadFull(r, h[:])
	return h, err
}

func writeBigInt(buf *bytes.Buffer, v *big.Int) error {
	if v == nil {
		v = new(big.Int)
	}
	b := v.Bytes()
	if err := binary.Write(buf, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readBigInt(r *bytes.Reader) (*big.Int, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return new(big.Int).SetBytes(b), nil
}

func writeOptionalHeight(buf *bytes.Buffer, h *uint32) error {
	if h == nil {
		return binary.Write(buf, binary.BigEndian, false)
	}
	if err := binary.Write(buf, binary.BigEndian, true); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, *h)
}

func readOptionalHeight(r *bytes.Reader) (*uint32, error) {
	var present bool
	if err := binary.Read(r, binary.BigEndian, &present); err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var h uint32
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func writeCoinState(buf *bytes.Buffer, cs CoinStateWire) error {
	if err := writeHash(buf, cs.ParentCoinInfo); err != nil {
		return err
	}
	if err := writeHash(buf, cs.PuzzleHash); err != nil {
		return err
	}
	if err := writeBigInt(buf, cs.Amount); err != nil {
		return err
	}
	if err := writeOptionalHeight(buf, cs.SpentHeight); err != nil {
		return err
	}
	return writeOptionalHeight(buf, cs.CreatedHeight)
}

func readCoinState(r *bytes.Reader) (CoinStateWire, error) {
	var cs CoinStateWire
	var err error
	if cs.ParentCoinInfo, err = readHash(r); err != nil {
		return cs, err
	}
	if cs.PuzzleHash, err = readHash(r); err != nil {
		return cs, err
	}
	if cs.Amount, err = readBigInt(r); err != nil {
		return cs, err
	}
	if cs.SpentHeight, err = readOptionalHeight(r); err != nil {
		return cs, err
	}
	if cs.CreatedHeight, err = readOptionalHeight(r); err != nil {
		return cs, err
	}
	return cs, nil
}

func writeCoinStateSlice(buf *bytes.Buffer, cs []CoinStateWire) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(cs))); err != nil {
		return err
	}
	for _, c := range cs {
		if err := writeCoinState(buf, c); err != nil {
			return err
		}
	}
	return nil
}

func readCoinStateSlice(r *bytes.Reader) ([]CoinStateWire, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([]CoinStateWire, n)
	for i := range out {
		cs, err := readCoinState(r)
		if err != nil {
			return nil, err
		}
		out[i] = cs
	}
	return out, nil
}

func writeHashSlice(buf *bytes.Buffer, hs [][32]byte) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(hs))); err != nil {
		return err
	}
	for _, h := range hs {
		if err := writeHash(buf, h); err != nil {
			return err
		}
	}
	return nil
}

func readHashSlice(r *bytes.Reader) ([][32]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([][32]byte, n)
	for i := range out {
		h, err := readHash(r)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func writeRewardChainBlock(buf *bytes.Buffer, rcb RewardChainBlockWire) error {
	if err := binary.Write(buf, binary.BigEndian, rcb.Height); err != nil {
		return err
	}
	if err := writeBigInt(buf, rcb.Weight); err != nil {
		return err
	}
	if err := writeBigInt(buf, rcb.TotalIters); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, rcb.IsTransactionBlock)
}

func readRewardChainBlock(r *bytes.Reader) (RewardChainBlockWire, error) {
	var rcb RewardChainBlockWire
	var err error
	if err = binary.Read(r, binary.BigEndian, &rcb.Height); err != nil {
		return rcb, err
	}
	if rcb.Weight, err = readBigInt(r); err != nil {
		return rcb, err
	}
	if rcb.TotalIters, err = readBigInt(r); err != nil {
		return rcb, err
	}
	if err = binary.Read(r, binary.BigEndian, &rcb.IsTransactionBlock); err != nil {
		return rcb, err
	}
	return rcb, nil
}

func writeBlockHeader(buf *bytes.Buffer, h RespondBlockHeaderMsg) error {
	if err := writeRewardChainBlock(buf, h.RewardChainBlock); err != nil {
		return err
	}
	if err := writeHash(buf, h.HeaderHash); err != nil {
		return err
	}
	if err := writeHash(buf, h.PrevHeaderHash); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, h.Timestamp)
}

func readBlockHeader(r *bytes.Reader) (RespondBlockHeaderMsg, error) {
	var h RespondBlockHeaderMsg
	var err error
	if h.RewardChainBlock, err = readRewardChainBlock(r); err != nil {
		return h, err
	}
	if h.HeaderHash, err = readHash(r); err != nil {
		return h, err
	}
	if h.PrevHeaderHash, err = readHash(r); err != nil {
		return h, err
	}
	if err = binary.Read(r, binary.BigEndian, &h.Timestamp); err != nil {
		return h, err
	}
	return h, nil
}

func writeHashToCoinsEntry(buf *bytes.Buffer, e HashToCoinsEntry) error {
	if err := writeHash(buf, e.Key); err != nil {
		return err
	}
	if err := writeHash(buf, e.MerkleHash); err != nil {
		return err
	}
	if e.Coin == nil {
		if err := binary.Write(buf, binary.BigEndian, false); err != nil {
			return err
		}
	} else {
		if err := binary.Write(buf, binary.BigEndian, true); err != nil {
			return err
		}
		if err := writeCoinState(buf, *e.Coin); err != nil {
			return err
		}
	}
	return writeCoinStateSlice(buf, e.Coins)
}

func readHashToCoinsEntry(r *bytes.Reader) (HashToCoinsEntry, error) {
	var e HashToCoinsEntry
	var err error
	if e.Key, err = readHash(r); err != nil {
		return e, err
	}
	if e.MerkleHash, err = readHash(r); err != nil {
		return e, err
	}
	var present bool
	if err = binary.Read(r, binary.BigEndian, &present); err != nil {
		return e, err
	}
	if present {
		cs, err := readCoinState(r)
		if err != nil {
			return e, err
		}
		e.Coin = &cs
	}
	if e.Coins, err = readCoinStateSlice(r); err != nil {
		return e, err
	}
	return e, nil
}

func writeEntrySlice(buf *bytes.Buffer, entries []HashToCoinsEntry) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeHashToCoinsEntry(buf, e); err != nil {
			return err
		}
	}
	return nil
}

func readEntrySlice(r *bytes.Reader) ([]HashToCoinsEntry, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([]HashToCoinsEntry, n)
	for i := range out {
		e, err := readHashToCoinsEntry(r)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// NewPeakWalletCodec is the concrete Codec for NewPeakWalletMsg.
func NewPeakWalletCodec() Codec[NewPeakWalletMsg] {
	return BinaryCodec[NewPeakWalletMsg]{
		encode: func(buf *bytes.Buffer, v NewPeakWalletMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			return writeHash(buf, v.HeaderHash)
		},
		decode: func(r *bytes.Reader) (NewPeakWalletMsg, error) {
			var v NewPeakWalletMsg
			if err := binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			hh, err := readHash(r)
			v.HeaderHash = hh
			return v, err
		},
	}
}

// RegisterInterestInPuzzleHashCodec is the concrete Codec for
// RegisterInterestInPuzzleHashMsg.
func RegisterInterestInPuzzleHashCodec() Codec[RegisterInterestInPuzzleHashMsg] {
	return BinaryCodec[RegisterInterestInPuzzleHashMsg]{
		encode: func(buf *bytes.Buffer, v RegisterInterestInPuzzleHashMsg) error {
			if err := writeHashSlice(buf, v.PuzzleHashes); err != nil {
				return err
			}
			return binary.Write(buf, binary.BigEndian, v.MinHeight)
		},
		decode: func(r *bytes.Reader) (RegisterInterestInPuzzleHashMsg, error) {
			var v RegisterInterestInPuzzleHashMsg
			var err error
			if v.PuzzleHashes, err = readHashSlice(r); err != nil {
				return v, err
			}
			err = binary.Read(r, binary.BigEndian, &v.MinHeight)
			return v, err
		},
	}
}

// RespondToPHUpdateCodec is the concrete Codec for RespondToPHUpdateMsg.
func RespondToPHUpdateCodec() Codec[RespondToPHUpdateMsg] {
	return BinaryCodec[RespondToPHUpdateMsg]{
		encode: func(buf *bytes.Buffer, v RespondToPHUpdateMsg) error {
			if err := writeHashSlice(buf, v.PuzzleHashes); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.BigEndian, v.MinHeight); err != nil {
				return err
			}
			return writeCoinStateSlice(buf, v.CoinStates)
		},
		decode: func(r *bytes.Reader) (RespondToPHUpdateMsg, error) {
			var v RespondToPHUpdateMsg
			var err error
			if v.PuzzleHashes, err = readHashSlice(r); err != nil {
				return v, err
			}
			if err = binary.Read(r, binary.BigEndian, &v.MinHeight); err != nil {
				return v, err
			}
			v.CoinStates, err = readCoinStateSlice(r)
			return v, err
		},
	}
}

// RegisterInterestInCoinCodec is the concrete Codec for
// RegisterInterestInCoinMsg.
func RegisterInterestInCoinCodec() Codec[RegisterInterestInCoinMsg] {
	return BinaryCodec[RegisterInterestInCoinMsg]{
		encode: func(buf *bytes.Buffer, v RegisterInterestInCoinMsg) error {
			if err := writeHashSlice(buf, v.CoinIDs); err != nil {
				return err
			}
			return binary.Write(buf, binary.BigEndian, v.MinHeight)
		},
		decode: func(r *bytes.Reader) (RegisterInterestInCoinMsg, error) {
			var v RegisterInterestInCoinMsg
			var err error
			if v.CoinIDs, err = readHashSlice(r); err != nil {
				return v, err
			}
			err = binary.Read(r, binary.BigEndian, &v.MinHeight)
			return v, err
		},
	}
}

// RespondToCoinUpdateCodec is the concrete Codec for
// RespondToCoinUpdateMsg.
func RespondToCoinUpdateCodec() Codec[RespondToCoinUpdateMsg] {
	return BinaryCodec[RespondToCoinUpdateMsg]{
		encode: func(buf *bytes.Buffer, v RespondToCoinUpdateMsg) error {
			if err := writeHashSlice(buf, v.CoinIDs); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.BigEndian, v.MinHeight); err != nil {
				return err
			}
			return writeCoinStateSlice(buf, v.CoinStates)
		},
		decode: func(r *bytes.Reader) (RespondToCoinUpdateMsg, error) {
			var v RespondToCoinUpdateMsg
			var err error
			if v.CoinIDs, err = readHashSlice(r); err != nil {
				return v, err
			}
			if err = binary.Read(r, binary.BigEndian, &v.MinHeight); err != nil {
				return v, err
			}
			v.CoinStates, err = readCoinStateSlice(r)
			return v, err
		},
	}
}

// RequestPuzzleSolutionCodec is the concrete Codec for
// RequestPuzzleSolutionMsg.
func RequestPuzzleSolutionCodec() Codec[RequestPuzzleSolutionMsg] {
	return BinaryCodec[RequestPuzzleSolutionMsg]{
		encode: func(buf *bytes.Buffer, v RequestPuzzleSolutionMsg) error {
			if err := writeHash(buf, v.CoinName); err != nil {
				return err
			}
			return binary.Write(buf, binary.BigEndian, v.Height)
		},
		decode: func(r *bytes.Reader) (RequestPuzzleSolutionMsg, error) {
			var v RequestPuzzleSolutionMsg
			var err error
			if v.CoinName, err = readHash(r); err != nil {
				return v, err
			}
			err = binary.Read(r, binary.BigEndian, &v.Height)
			return v, err
		},
	}
}

// RespondPuzzleSolutionCodec is the concrete Codec for
// RespondPuzzleSolutionMsg.
func RespondPuzzleSolutionCodec() Codec[RespondPuzzleSolutionMsg] {
	return BinaryCodec[RespondPuzzleSolutionMsg]{
		encode: func(buf *bytes.Buffer, v RespondPuzzleSolutionMsg) error {
			if err := writeHash(buf, v.CoinName); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			if err := writeBytes(buf, v.PuzzleReveal); err != nil {
				return err
			}
			return writeBytes(buf, v.Solution)
		},
		decode: func(r *bytes.Reader) (RespondPuzzleSolutionMsg, error) {
			var v RespondPuzzleSolutionMsg
			var err error
			if v.CoinName, err = readHash(r); err != nil {
				return v, err
			}
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			if v.PuzzleReveal, err = readBytes(r); err != nil {
				return v, err
			}
			v.Solution, err = readBytes(r)
			return v, err
		},
	}
}

// RejectPuzzleSolutionCodec is the concrete Codec for
// RejectPuzzleSolutionMsg.
func RejectPuzzleSolutionCodec() Codec[RejectPuzzleSolutionMsg] {
	return BinaryCodec[RejectPuzzleSolutionMsg]{
		encode: func(buf *bytes.Buffer, v RejectPuzzleSolutionMsg) error {
			if err := writeHash(buf, v.CoinName); err != nil {
				return err
			}
			return binary.Write(buf, binary.BigEndian, v.Height)
		},
		decode: func(r *bytes.Reader) (RejectPuzzleSolutionMsg, error) {
			var v RejectPuzzleSolutionMsg
			var err error
			if v.CoinName, err = readHash(r); err != nil {
				return v, err
			}
			err = binary.Read(r, binary.BigEndian, &v.Height)
			return v, err
		},
	}
}

// RequestChildrenCodec is the concrete Codec for RequestChildrenMsg.
func RequestChildrenCodec() Codec[RequestChildrenMsg] {
	return BinaryCodec[RequestChildrenMsg]{
		encode: func(buf *bytes.Buffer, v RequestChildrenMsg) error {
			return writeHash(buf, v.CoinName)
		},
		decode: func(r *bytes.Reader) (RequestChildrenMsg, error) {
			var v RequestChildrenMsg
			var err error
			v.CoinName, err = readHash(r)
			return v, err
		},
	}
}

// RespondChildrenCodec is the concrete Codec for RespondChildrenMsg.
func RespondChildrenCodec() Codec[RespondChildrenMsg] {
	return BinaryCodec[RespondChildrenMsg]{
		encode: func(buf *bytes.Buffer, v RespondChildrenMsg) error {
			return writeCoinStateSlice(buf, v.CoinStates)
		},
		decode: func(r *bytes.Reader) (RespondChildrenMsg, error) {
			var v RespondChildrenMsg
			var err error
			v.CoinStates, err = readCoinStateSlice(r)
			return v, err
		},
	}
}

// RequestBlockHeaderCodec is the concrete Codec for RequestBlockHeaderMsg.
func RequestBlockHeaderCodec() Codec[RequestBlockHeaderMsg] {
	return BinaryCodec[RequestBlockHeaderMsg]{
		encode: func(buf *bytes.Buffer, v RequestBlockHeaderMsg) error {
			return binary.Write(buf, binary.BigEndian, v.Height)
		},
		decode: func(r *bytes.Reader) (RequestBlockHeaderMsg, error) {
			var v RequestBlockHeaderMsg
			err := binary.Read(r, binary.BigEndian, &v.Height)
			return v, err
		},
	}
}

// RespondBlockHeaderCodec is the concrete Codec for RespondBlockHeaderMsg.
func RespondBlockHeaderCodec() Codec[RespondBlockHeaderMsg] {
	return BinaryCodec[RespondBlockHeaderMsg]{
		encode: writeBlockHeader,
		decode: readBlockHeader,
	}
}

// RejectHeaderRequestCodec is the concrete Codec for
// RejectHeaderRequestMsg.
func RejectHeaderRequestCodec() Codec[RejectHeaderRequestMsg] {
	return BinaryCodec[RejectHeaderRequestMsg]{
		encode: func(buf *bytes.Buffer, v RejectHeaderRequestMsg) error {
			return binary.Write(buf, binary.BigEndian, v.Height)
		},
		decode: func(r *bytes.Reader) (RejectHeaderRequestMsg, error) {
			var v RejectHeaderRequestMsg
			err := binary.Read(r, binary.BigEndian, &v.Height)
			return v, err
		},
	}
}

// RequestHeaderBlocksCodec is the concrete Codec for
// RequestHeaderBlocksMsg.
func RequestHeaderBlocksCodec() Codec[RequestHeaderBlocksMsg] {
	return BinaryCodec[RequestHeaderBlocksMsg]{
		encode: func(buf *bytes.Buffer, v RequestHeaderBlocksMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.StartHeight); err != nil {
				return err
			}
			return binary.Write(buf, binary.BigEndian, v.EndHeight)
		},
		decode: func(r *bytes.Reader) (RequestHeaderBlocksMsg, error) {
			var v RequestHeaderBlocksMsg
			if err := binary.Read(r, binary.BigEndian, &v.StartHeight); err != nil {
				return v, err
			}
			err := binary.Read(r, binary.BigEndian, &v.EndHeight)
			return v, err
		},
	}
}

// RespondHeaderBlocksCodec is the concrete Codec for
// RespondHeaderBlocksMsg.
func RespondHeaderBlocksCodec() Codec[RespondHeaderBlocksMsg] {
	return BinaryCodec[RespondHeaderBlocksMsg]{
		encode: func(buf *bytes.Buffer, v RespondHeaderBlocksMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.StartHeight); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.BigEndian, v.EndHeight); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.BigEndian, uint32(len(v.Headers))); err != nil {
				return err
			}
			for _, h := range v.Headers {
				if err := writeBlockHeader(buf, h); err != nil {
					return err
				}
			}
			return nil
		},
		decode: func(r *bytes.Reader) (RespondHeaderBlocksMsg, error) {
			var v RespondHeaderBlocksMsg
			if err := binary.Read(r, binary.BigEndian, &v.StartHeight); err != nil {
				return v, err
			}
			if err := binary.Read(r, binary.BigEndian, &v.EndHeight); err != nil {
				return v, err
			}
			var n uint32
			if err := binary.Read(r, binary.BigEndian, &n); err != nil {
				return v, err
			}
			v.Headers = make([]RespondBlockHeaderMsg, n)
			for i := range v.Headers {
				h, err := readBlockHeader(r)
				if err != nil {
					return v, err
				}
				v.Headers[i] = h
			}
			return v, nil
		},
	}
}

// RejectHeaderBlocksCodec is the concrete Codec for RejectHeaderBlocksMsg.
func RejectHeaderBlocksCodec() Codec[RejectHeaderBlocksMsg] {
	return BinaryCodec[RejectHeaderBlocksMsg]{
		encode: func(buf *bytes.Buffer, v RejectHeaderBlocksMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.StartHeight); err != nil {
				return err
			}
			return binary.Write(buf, binary.BigEndian, v.EndHeight)
		},
		decode: func(r *bytes.Reader) (RejectHeaderBlocksMsg, error) {
			var v RejectHeaderBlocksMsg
			if err := binary.Read(r, binary.BigEndian, &v.StartHeight); err != nil {
				return v, err
			}
			err := binary.Read(r, binary.BigEndian, &v.EndHeight)
			return v, err
		},
	}
}

// RequestRemovalsCodec is the concrete Codec for RequestRemovalsMsg.
func RequestRemovalsCodec() Codec[RequestRemovalsMsg] {
	return BinaryCodec[RequestRemovalsMsg]{
		encode: func(buf *bytes.Buffer, v RequestRemovalsMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			if err := writeHash(buf, v.HeaderHash); err != nil {
				return err
			}
			return writeHashSlice(buf, v.CoinNames)
		},
		decode: func(r *bytes.Reader) (RequestRemovalsMsg, error) {
			var v RequestRemovalsMsg
			var err error
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			if v.HeaderHash, err = readHash(r); err != nil {
				return v, err
			}
			v.CoinNames, err = readHashSlice(r)
			return v, err
		},
	}
}

// RespondRemovalsCodec is the concrete Codec for RespondRemovalsMsg.
func RespondRemovalsCodec() Codec[RespondRemovalsMsg] {
	return BinaryCodec[RespondRemovalsMsg]{
		encode: func(buf *bytes.Buffer, v RespondRemovalsMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			if err := writeHash(buf, v.HeaderHash); err != nil {
				return err
			}
			return writeEntrySlice(buf, v.Removals)
		},
		decode: func(r *bytes.Reader) (RespondRemovalsMsg, error) {
			var v RespondRemovalsMsg
			var err error
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			if v.HeaderHash, err = readHash(r); err != nil {
				return v, err
			}
			v.Removals, err = readEntrySlice(r)
			return v, err
		},
	}
}

// RejectRemovalsRequestCodec is the concrete Codec for
// RejectRemovalsRequestMsg.
func RejectRemovalsRequestCodec() Codec[RejectRemovalsRequestMsg] {
	return BinaryCodec[RejectRemovalsRequestMsg]{
		encode: func(buf *bytes.Buffer, v RejectRemovalsRequestMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			return writeHash(buf, v.HeaderHash)
		},
		decode: func(r *bytes.Reader) (RejectRemovalsRequestMsg, error) {
			var v RejectRemovalsRequestMsg
			var err error
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			v.HeaderHash, err = readHash(r)
			return v, err
		},
	}
}

// RequestAdditionsCodec is the concrete Codec for RequestAdditionsMsg.
func RequestAdditionsCodec() Codec[RequestAdditionsMsg] {
	return BinaryCodec[RequestAdditionsMsg]{
		encode: func(buf *bytes.Buffer, v RequestAdditionsMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			if err := writeHash(buf, v.HeaderHash); err != nil {
				return err
			}
			return writeHashSlice(buf, v.PuzzleHashes)
		},
		decode: func(r *bytes.Reader) (RequestAdditionsMsg, error) {
			var v RequestAdditionsMsg
			var err error
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			if v.HeaderHash, err = readHash(r); err != nil {
				return v, err
			}
			v.PuzzleHashes, err = readHashSlice(r)
			return v, err
		},
	}
}

// RespondAdditionsCodec is the concrete Codec for RespondAdditionsMsg.
func RespondAdditionsCodec() Codec[RespondAdditionsMsg] {
	return BinaryCodec[RespondAdditionsMsg]{
		encode: func(buf *bytes.Buffer, v RespondAdditionsMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			if err := writeHash(buf, v.HeaderHash); err != nil {
				return err
			}
			return writeEntrySlice(buf, v.Additions)
		},
		decode: func(r *bytes.Reader) (RespondAdditionsMsg, error) {
			var v RespondAdditionsMsg
			var err error
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			if v.HeaderHash, err = readHash(r); err != nil {
				return v, err
			}
			v.Additions, err = readEntrySlice(r)
			return v, err
		},
	}
}

// RejectAdditionsRequestCodec is the concrete Codec for
// RejectAdditionsRequestMsg.
func RejectAdditionsRequestCodec() Codec[RejectAdditionsRequestMsg] {
	return BinaryCodec[RejectAdditionsRequestMsg]{
		encode: func(buf *bytes.Buffer, v RejectAdditionsRequestMsg) error {
			if err := binary.Write(buf, binary.BigEndian, v.Height); err != nil {
				return err
			}
			return writeHash(buf, v.HeaderHash)
		},
		decode: func(r *bytes.Reader) (RejectAdditionsRequestMsg, error) {
			var v RejectAdditionsRequestMsg
			var err error
			if err = binary.Read(r, binary.BigEndian, &v.Height); err != nil {
				return v, err
			}
			v.HeaderHash, err = readHash(r)
			return v, err
		},
	}
}

// EncodeMessage builds a Message envelope from a typed payload using the
// given Codec.
func EncodeMessage[T any](t MessageType, codec Codec[T], v T) (Message, error) {
	data, err := codec.Encode(v)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", t, err)
	}
	return Message{Type: t, Data: data}, nil
}
