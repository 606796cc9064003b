package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HexUint64 parses a "0x"-prefixed hex string into a uint64, tolerating the
// RawTransaction convention of treating zero as "0x0".
func HexUint64(s string) (uint64, error) {
	if s == "" || s == "0x" {
		return 0, nil
	}
	return hexutil.DecodeUint64(normalizeHex(s))
}

// HexBigInt parses a "0x"-prefixed hex string into a *big.Int, used for
// value/gas fields that may exceed 64 bits.
func HexBigInt(s string) (*big.Int, error) {
	if s == "" || s == "0x" {
		return big.NewInt(0), nil
	}
	b, ok := new(big.Int).SetString(strings.TrimPrefix(normalizeHex(s), "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex big int %q", s)
	}
	return b, nil
}

// CanonicalHexUint64 renders n as canonical lowercase "0x"-prefixed hex,
// with zero rendered as "0x0" per §4.3.
func CanonicalHexUint64(n uint64) string {
	if n == 0 {
		return "0x0"
	}
	return hexutil.EncodeUint64(n)
}

// CanonicalHexBigInt renders n as canonical lowercase "0x"-prefixed hex.
func CanonicalHexBigInt(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0x0"
	}
	return fmt.Sprintf("0x%x", n)
}

// normalizeHex lowercases a hex string and ensures a 0x prefix.
func normalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}

// NormalizeAddress lowercases an address string, leaving the 0x prefix intact.
func NormalizeAddress(addr string) string {
	return normalizeHex(addr)
}
