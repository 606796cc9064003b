package alerttypes

import (
	"fmt"
	"strings"
)

// TargetKey is the canonical "{NETWORK}:{subnet}:{address}" string (with
// lowercase address) every evaluation is keyed by.
type TargetKey string

// NewTargetKey builds a TargetKey, uppercasing the network and lowercasing
// the address as specified in the GLOSSARY.
func NewTargetKey(network, subnet, address string) TargetKey {
	return TargetKey(fmt.Sprintf("%s:%s:%s", strings.ToUpper(network), subnet, strings.ToLower(address)))
}

// Short renders the address component as 0xAAAA…BBBB for display contexts.
func (k TargetKey) Short() string {
	parts := strings.Split(string(k), ":")
	if len(parts) == 0 {
		return string(k)
	}
	addr := parts[len(parts)-1]
	if len(addr) < 10 {
		return string(k)
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// Address returns the address component of the target key.
func (k TargetKey) Address() string {
	parts := strings.Split(string(k), ":")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
