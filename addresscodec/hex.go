package addresscodec

import "encoding/hex"

// DecodeHex32 validates that s is exactly 64 hex characters (optionally
// "0x"-prefixed) and decodes it to a 32-byte hash. Every provider
// operation that accepts a raw coin-id or puzzle-hash string validates it
// this way before building a request.
func DecodeHex32(s string) (hash [32]byte, ok bool) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 64 {
		return hash, false
	}

	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return hash, false
	}

	copy(hash[:], b)
	return hash, true
}
