package columnar

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
)

const (
	defaultMaxBatchRows  = 500
	defaultFlushInterval = 2 * time.Second
)

// timestampColumns/dateColumns name destination columns that need a cast
// when the NDJSON batch is read back in: epoch microseconds -> TIMESTAMP,
// "YYYY-MM-DD" string -> DATE (§4.8).
var timestampColumns = map[string]bool{
	"block_timestamp": true,
	"ingested_at":     true,
	"sent_at":         true,
}

var dateColumns = map[string]bool{
	"block_date":    true,
	"snapshot_date": true,
}

// Subject builds the columnar writer's per-(table,network,subnet) intake
// subject: ducklake.{table}.{network}.{subnet}.write (§4.8).
func Subject(table, network, subnet string) string {
	return fmt.Sprintf("ducklake.%s.%s.%s.write", table, network, subnet)
}

type batchKey struct {
	table         string
	chainIDString string
}

type batch struct {
	rows []types.EnrichedRecord
}

// Writer is the columnar writer stage (§4.8): it batches enriched rows by
// (table, chain_id), flushes on size or time bound, and loads each batch
// into DuckDB via a temp NDJSON file.
type Writer struct {
	log zerolog.Logger
	bus bus.Bus
	db  *sql.DB

	maxBatchRows  int
	flushInterval time.Duration

	mu      sync.Mutex
	batches map[batchKey]*batch

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New builds a Writer against an already-migrated DuckDB handle.
func New(b bus.Bus, db *sql.DB) *Writer {
	w := &Writer{
		log:           log.With().Str("component", "columnar.writer").Logger(),
		bus:           b,
		db:            db,
		maxBatchRows:  defaultMaxBatchRows,
		flushInterval: defaultFlushInterval,
		batches:       make(map[batchKey]*batch),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go w.flushLoop()
	return w
}

func (w *Writer) flushLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.FlushAll(context.Background()); err != nil {
				w.log.Error().Err(err).Msg("time-bound flush failed")
			}
		case <-w.stop:
			return
		}
	}
}

// Close stops the time-bound flush loop and flushes any remaining batches.
func (w *Writer) Close(ctx context.Context) error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stop)
		<-w.done
		err = w.FlushAll(ctx)
	})
	return err
}

// Subscribe attaches the writer to table's intake subject for (network,
// subnet). One subscription covers exactly one logical table.
func (w *Writer) Subscribe(ctx context.Context, table, network, subnet string) (bus.Subscription, error) {
	subject := Subject(table, network, subnet)
	return w.bus.Subscribe(ctx, subject, "columnar-writer", func(_ context.Context, msg bus.Message) {
		var rec types.EnrichedRecord
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			w.log.Error().Err(err).Str("subject", subject).Msg("decoding enriched record")
			return
		}
		if rec.Table == "" {
			rec.Table = table
		}
		w.Ingest(ctx, rec)
	})
}

// Ingest applies the §4.8 record-enrichment defaults and appends rec to the
// open batch for (table, chain_id), flushing immediately once that batch
// reaches the size bound.
func (w *Writer) Ingest(ctx context.Context, rec types.EnrichedRecord) {
	enrichRecord(&rec)

	key := batchKey{table: rec.Table, chainIDString: rec.Partition.ChainIDString}

	w.mu.Lock()
	b, ok := w.batches[key]
	if !ok {
		b = &batch{}
		w.batches[key] = b
	}
	b.rows = append(b.rows, rec)
	ready := len(b.rows) >= w.maxBatchRows
	w.mu.Unlock()

	if ready {
		if err := w.flushKey(ctx, key); err != nil {
			w.log.Error().Err(err).Str("table", key.table).Msg("size-bound flush failed")
		}
	}
}

// FlushAll flushes every open batch. Used by the time-bound trigger and at
// shutdown.
func (w *Writer) FlushAll(ctx context.Context) error {
	w.mu.Lock()
	keys := make([]batchKey, 0, len(w.batches))
	for k, b := range w.batches {
		if len(b.rows) > 0 {
			keys = append(keys, k)
		}
	}
	w.mu.Unlock()

	var firstErr error
	for _, k := range keys {
		if err := w.flushKey(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *Writer) flushKey(ctx context.Context, key batchKey) error {
	w.mu.Lock()
	b, ok := w.batches[key]
	if !ok || len(b.rows) == 0 {
		w.mu.Unlock()
		return nil
	}
	rows := b.rows
	delete(w.batches, key)
	w.mu.Unlock()

	return w.insertBatch(ctx, key.table, rows)
}

func (w *Writer) insertBatch(ctx context.Context, table string, rows []types.EnrichedRecord) error {
	cols := columnsFor(table)

	tmp, err := os.CreateTemp("", "ducklake-*.ndjson")
	if err != nil {
		return errors.Wrap(err, "creating ndjson temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var dropped uint64
	for _, rec := range rows {
		line, n := projectRow(rec, cols)
		dropped += n
		if _, err := tmp.Write(line); err != nil {
			tmp.Close()
			return errors.Wrap(err, "writing ndjson row")
		}
		if _, err := tmp.Write([]byte("\n")); err != nil {
			tmp.Close()
			return errors.Wrap(err, "writing ndjson newline")
		}
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing ndjson temp file")
	}
	if dropped > 0 {
		w.log.Debug().Uint64("dropped_fields", dropped).Str("table", table).Msg("dropped unrecognised columns")
	}

	query := insertQuery(table, cols, tmpPath)
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(err, "inserting batch into %s", table)
	}
	return nil
}

// insertQuery builds the INSERT INTO ... SELECT ... FROM read_ndjson_auto(...)
// statement, casting the columns that need a type fixup per §4.8. tmpPath is
// produced by os.CreateTemp so it carries no shell/SQL metacharacters.
func insertQuery(table string, cols []string, tmpPath string) string {
	src := fmt.Sprintf("read_ndjson_auto('%s')", tmpPath)
	if cols == nil {
		return fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", table, src)
	}

	selects := make([]string, len(cols))
	for i, c := range cols {
		switch {
		case timestampColumns[c]:
			selects[i] = fmt.Sprintf("make_timestamp(%s)", c)
		case dateColumns[c]:
			selects[i] = fmt.Sprintf("CAST(%s AS DATE)", c)
		default:
			selects[i] = c
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s",
		table, strings.Join(cols, ", "), strings.Join(selects, ", "), src,
	)
}

// mergedFields flattens a record's partition components in alongside its
// value fields, since destination schemas store chain_id_string/block_date/
// shard/address_prefix as ordinary columns.
func mergedFields(rec types.EnrichedRecord) map[string]interface{} {
	out := make(map[string]interface{}, len(rec.Fields)+4)
	for k, v := range rec.Fields {
		out[k] = v
	}
	if rec.Partition.ChainIDString != "" {
		out["chain_id_string"] = rec.Partition.ChainIDString
	}
	if rec.Partition.BlockDate != "" {
		out["block_date"] = rec.Partition.BlockDate
	}
	out["shard"] = rec.Partition.Shard
	if rec.Partition.AddressPrefix != "" {
		out["address_prefix"] = rec.Partition.AddressPrefix
	}
	if rec.Partition.SnapshotDate != "" {
		out["snapshot_date"] = rec.Partition.SnapshotDate
	}
	if rec.Partition.Interval != "" {
		out["interval"] = rec.Partition.Interval
	}
	return out
}

// projectRow keeps only the columns the destination schema declares,
// reporting how many incoming fields were dropped. An unrecognised table
// (cols == nil) is written through unfiltered.
func projectRow(rec types.EnrichedRecord, cols []string) ([]byte, uint64) {
	merged := mergedFields(rec)
	if cols == nil {
		b, _ := json.Marshal(merged)
		return b, 0
	}

	known := make(map[string]bool, len(cols))
	projected := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		known[c] = true
		if v, ok := merged[c]; ok {
			projected[c] = v
		}
	}
	var dropped uint64
	for k := range merged {
		if !known[k] {
			dropped++
		}
	}
	b, _ := json.Marshal(projected)
	return b, dropped
}

// enrichRecord applies the §4.8 "record enrichment before insert" defaults
// in place, using the destination schema to decide which defaults apply.
func enrichRecord(rec *types.EnrichedRecord) {
	if rec.Fields == nil {
		rec.Fields = map[string]interface{}{}
	}
	cols := columnsFor(rec.Table)
	has := func(name string) bool {
		for _, c := range cols {
			if c == name {
				return true
			}
		}
		return false
	}

	if ts, ok := rec.Fields["timestamp"]; ok {
		if _, hasBT := rec.Fields["block_timestamp"]; !hasBT {
			rec.Fields["block_timestamp"] = ts
		}
	}

	if has("block_date") && rec.Partition.BlockDate == "" {
		if secs, ok := numericField(rec.Fields["block_timestamp"]); ok {
			rec.Partition.BlockDate = types.BlockDate(uint64(secs))
		}
	}
	if has("shard") && rec.Partition.Shard == 0 {
		if txHash, ok := rec.Fields["tx_hash"].(string); ok && txHash != "" {
			rec.Partition.Shard = types.Shard(txHash, ShardCount(rec.Table))
		}
	}
	if has("transaction_index") {
		if _, ok := rec.Fields["transaction_index"]; !ok {
			rec.Fields["transaction_index"] = 0
		}
	}
	if has("status") {
		if _, ok := rec.Fields["status"]; !ok {
			rec.Fields["status"] = "SUCCESS"
		}
	}

	for tsCol := range timestampColumns {
		if !has(tsCol) {
			continue
		}
		if v, ok := rec.Fields[tsCol]; ok {
			if secs, ok := numericField(v); ok {
				rec.Fields[tsCol] = int64(secs) * 1_000_000
			}
		}
	}
}

func numericField(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
