package types

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"time"
)

// PartitionKey is the four-tuple under which a record is stored (§3.1, §4.8).
// Some tables use the extended variants (AddressPrefix, SnapshotDate,
// Interval); leave them empty when the table schema doesn't declare them.
type PartitionKey struct {
	ChainIDString string `json:"chain_id_string"`
	BlockDate     string `json:"block_date"` // YYYY-MM-DD, UTC
	Shard         uint32 `json:"shard"`

	AddressPrefix string `json:"address_prefix,omitempty"`
	SnapshotDate  string `json:"snapshot_date,omitempty"`
	Interval      string `json:"interval,omitempty"`
}

// BlockDate renders the UTC date portion of a unix-seconds timestamp, per
// the PartitionKey.BlockDate definition in §3.1.
func BlockDate(blockTimestamp uint64) string {
	return time.Unix(int64(blockTimestamp), 0).UTC().Format("2006-01-02")
}

// Shard computes hash(distributionKey) mod shardCount using the §4.8
// sharding function: shard(key) = u32_be(sha256(key)[0..4]) mod shard_count.
func Shard(distributionKey string, shardCount uint32) uint32 {
	if shardCount == 0 {
		shardCount = 16
	}
	sum := sha256.Sum256([]byte(distributionKey))
	v := binary.BigEndian.Uint32(sum[0:4])
	return v % shardCount
}

// AddressPrefix computes the lower(address.strip("0x")[0..4]) partition
// component, zero-padded to four hex characters, per §4.8.
func AddressPrefix(address string) string {
	a := strings.ToLower(strings.TrimPrefix(address, "0x"))
	if len(a) >= 4 {
		return a[:4]
	}
	return a + strings.Repeat("0", 4-len(a))
}

// EnrichedRecord is the output of a per-variant enricher, destined for one
// logical columnar table.
type EnrichedRecord struct {
	Table     string                 `json:"table"`
	Partition PartitionKey           `json:"partition"`
	Fields    map[string]interface{} `json:"fields"`
}

// CorrelationID builds the tx_hash||counter correlation id required by I1.
func CorrelationID(txHash string, counter uint64) string {
	return txHash + "-" + CanonicalHexUint64(counter)
}
