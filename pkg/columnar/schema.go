package columnar

// shardCountTable implements §4.8's default shard counts, keyed by table
// family. The default for anything not listed is 16.
var shardCountTable = map[string]uint32{
	"address_transactions": 256,
	"wallet_balances":      256,
	"transactions":         64,
	"logs":                 64,
	"contract_calls":       64,
	"address_snapshots":    128,
	"token_snapshots":      128,
	"ohlcv":                32,
}

// ShardCount returns the configured shard count for table, defaulting to 16.
func ShardCount(table string) uint32 {
	if n, ok := shardCountTable[table]; ok {
		return n
	}
	return 16
}

// tableSchemas lists the destination columns recognised per logical table.
// Fields on an incoming record that aren't in this list are dropped (with a
// debug count) rather than failing the batch, per §4.8.
var tableSchemas = map[string][]string{
	"transactions": {
		"tx_hash", "from", "to", "contract_address", "value_wei", "value_native",
		"amount_tier", "transaction_fee_wei", "transaction_fee", "transaction_type",
		"transaction_subtype", "decoding_status", "summary", "status", "chain_id",
		"chain_id_string", "block_number", "block_date", "block_timestamp", "shard",
		"transaction_index", "gas_tier", "bytecode_size", "bytecode_hash",
		"bytecode_complexity", "patterns", "contract_type", "is_proxy", "protocol",
		"category",
	},
	"address_transactions": {
		"address", "tx_hash", "is_sender", "counterparty", "value_native",
		"chain_id_string", "block_number", "block_date", "block_timestamp", "shard",
		"address_prefix",
	},
	"logs": {
		"address", "topic0", "topic1", "topic2", "topic3", "data", "log_index",
		"tx_hash", "block_number", "is_anonymous_event", "ingested_at", "chain_id",
		"chain_id_string", "block_date", "block_timestamp", "shard",
	},
	"contract_calls": {
		"tx_hash", "contract_address", "function_selector", "category", "status",
		"currency", "value", "event_count", "chain_id_string", "block_number",
		"block_date", "block_timestamp", "shard",
	},
	"notifications": {
		"notification_id", "user_id", "instance_id", "channel", "title", "body",
		"target_key", "sent_at", "chain_id_string", "block_date", "shard",
	},
	"notification_content": {
		"notification_id", "instance_id", "user_id", "title", "body",
		"target_key", "sent_at", "block_date", "shard",
	},
}

// columnsFor returns the known destination columns for table, or nil if the
// table isn't recognised (the writer still accepts and stores the row, it
// just can't drop-filter unknown fields).
func columnsFor(table string) []string {
	return tableSchemas[table]
}
