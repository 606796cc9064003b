package types

import "strings"

// EventLog is a single EVM log, produced by the log ingestor directly from
// eth_getLogs and, redundantly, by the call enricher from receipt logs.
type EventLog struct {
	Address     string  `json:"address"`
	Topic0      *string `json:"topic0,omitempty"`
	Topic1      *string `json:"topic1,omitempty"`
	Topic2      *string `json:"topic2,omitempty"`
	Topic3      *string `json:"topic3,omitempty"`
	Data        string  `json:"data"`
	LogIndex    uint64  `json:"log_index"`
	TxHash      string  `json:"tx_hash"`
	BlockNumber uint64  `json:"block_number"`

	IsAnonymousEvent bool    `json:"is_anonymous_event"`
	EventName        *string `json:"event_name,omitempty"`
}

// NewEventLogFromTopics builds an EventLog from a raw topics slice (0..4
// entries), setting IsAnonymousEvent per §3.1.
func NewEventLogFromTopics(address string, topics []string, data, txHash string, logIndex, blockNumber uint64) EventLog {
	el := EventLog{
		Address:     strings.ToLower(address),
		Data:        data,
		LogIndex:    logIndex,
		TxHash:      txHash,
		BlockNumber: blockNumber,
	}
	set := func(i int) *string {
		if i < len(topics) {
			v := strings.ToLower(topics[i])
			return &v
		}
		return nil
	}
	el.Topic0 = set(0)
	el.Topic1 = set(1)
	el.Topic2 = set(2)
	el.Topic3 = set(3)
	el.IsAnonymousEvent = el.Topic0 == nil
	return el
}

// knownEventTopics maps topic0 to the event name, per §6.4.
var knownEventTopics = map[string]string{
	"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef": "Transfer",
	"0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925": "Approval",
	"0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822": "Swap",
	"0xe1fffcc4923d04b559f4d29a8bfc6cda04eb5b0d3c460751c2402c5c5cc9109c": "Deposit",
	"0x7fcf532c15f0a6db0bd6d0e038bea71d30d808c7d98cb3bf7268a95bf5081b65": "Withdrawal",
}

// EventNameForTopic0 resolves a topic0 hash to a known event name.
func EventNameForTopic0(topic0 string) (string, bool) {
	name, ok := knownEventTopics[strings.ToLower(topic0)]
	return name, ok
}
