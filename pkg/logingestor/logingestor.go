// Package logingestor implements the log ingestor stage (§4.2): fetches all
// logs in a block, writes a durable row per log, and extracts candidate
// target keys to drive event-driven alert scheduling.
package logingestor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
	"github.com/web3ekko/ekko-streams/pkg/rpcclient"
)

// MaxLogsPerBlock caps the number of logs processed per block (§4.2).
const MaxLogsPerBlock = 50_000

// ScheduleEventSubject is the event-driven scheduler's intake subject.
const ScheduleEventSubject = "alerts.schedule.event_driven"

// WriteSubject builds the columnar writer's per-(table,network,subnet)
// intake subject (§4.8: ducklake.{table}.{network}.{subnet}.write).
func WriteSubject(table string, network chain.Network, subnet chain.Subnet) string {
	return fmt.Sprintf("ducklake.%s.%s.%s.write", table, network, subnet)
}

// LogsWriteSubject is the columnar writer's log-row intake subject for
// (network, subnet). Kept as a function for parity with WriteSubject;
// callers should prefer WriteSubject("logs", network, subnet) directly.
func LogsWriteSubject(network chain.Network, subnet chain.Subnet) string {
	return WriteSubject("logs", network, subnet)
}

// BlockHeadsSubject builds the inbound subject for (network, subnet).
func BlockHeadsSubject(network chain.Network, subnet chain.Subnet) string {
	return fmt.Sprintf("newheads.%s.%s.evm", network, subnet)
}

// Ingestor is the log ingestor stage.
type Ingestor struct {
	log    zerolog.Logger
	bus    bus.Bus
	kv     kv.Store
	client rpcclient.Client

	droppedOverCap int64
}

// New builds an Ingestor.
func New(b bus.Bus, store kv.Store, client rpcclient.Client) *Ingestor {
	return &Ingestor{
		log:    log.With().Str("component", "logingestor").Logger(),
		bus:    b,
		kv:     store,
		client: client,
	}
}

// Subscribe attaches the ingestor to the block-heads subject, independently
// of the fetcher (§4.2: "Consumes BlockHeader independently of the
// fetcher").
func (i *Ingestor) Subscribe(ctx context.Context, network chain.Network, subnet chain.Subnet) (bus.Subscription, error) {
	subject := BlockHeadsSubject(network, subnet)
	return i.bus.Subscribe(ctx, subject, "logingestor", func(ctx context.Context, msg bus.Message) {
		var header chain.BlockHeader
		if err := json.Unmarshal(msg.Body, &header); err != nil {
			i.log.Error().Err(err).Msg("decoding block header")
			return
		}
		if err := i.HandleHeader(ctx, header); err != nil {
			i.log.Error().Err(err).Uint64("block_number", header.BlockNumber).Msg("ingesting logs failed")
		}
	})
}

type wireLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	LogIndex         string   `json:"logIndex"`
	TransactionHash  string   `json:"transactionHash"`
	BlockNumber      string   `json:"blockNumber"`
}

// HandleHeader fetches logs for header's single-block range, persists every
// log, and emits event-driven schedule requests for candidate target keys.
// Failures in persist vs schedule are independently counted and never stop
// the other (§4.2: "deliberately best-effort per log").
func (i *Ingestor) HandleHeader(ctx context.Context, header chain.BlockHeader) error {
	var netCfg chain.NetworkConfig
	if err := kv.GetJSON(ctx, i.kv, chain.KVKey(header.Network, header.Subnet), &netCfg); err != nil {
		return errors.Wrap(err, "loading network config")
	}
	if !netCfg.Enabled || netCfg.RPCURL == "" {
		return errors.New("network disabled or missing rpc_url")
	}

	raw, err := i.client.GetLogs(ctx, netCfg.RPCURL, header.BlockNumber, header.BlockNumber)
	if err != nil {
		return errors.Wrap(err, "eth_getLogs")
	}
	var wireLogs []wireLog
	if err := json.Unmarshal(raw, &wireLogs); err != nil {
		return errors.Wrap(err, "decoding logs result")
	}

	if len(wireLogs) > MaxLogsPerBlock {
		dropped := len(wireLogs) - MaxLogsPerBlock
		i.droppedOverCap += int64(dropped)
		i.log.Warn().
			Int("dropped", dropped).
			Uint64("block_number", header.BlockNumber).
			Msg("log cap exceeded, dropping excess logs")
		wireLogs = wireLogs[:MaxLogsPerBlock]
	}

	var persistErrs, scheduleErrs int
	for _, wl := range wireLogs {
		if err := i.persistLog(ctx, header, wl); err != nil {
			persistErrs++
			i.log.Warn().Err(err).Msg("persisting log row failed")
		}
		if err := i.scheduleFromLog(ctx, header, wl); err != nil {
			scheduleErrs++
			i.log.Warn().Err(err).Msg("scheduling from log failed")
		}
	}
	if persistErrs > 0 || scheduleErrs > 0 {
		i.log.Debug().Int("persist_errors", persistErrs).Int("schedule_errors", scheduleErrs).Msg("per-log failures")
	}
	return nil
}

func (i *Ingestor) persistLog(ctx context.Context, header chain.BlockHeader, wl wireLog) error {
	logIndex, err := types.HexUint64(wl.LogIndex)
	if err != nil {
		return errors.Wrap(err, "parsing logIndex")
	}
	blockNumber, err := types.HexUint64(wl.BlockNumber)
	if err != nil {
		blockNumber = header.BlockNumber
	}
	el := types.NewEventLogFromTopics(wl.Address, wl.Topics, wl.Data, types.NormalizeAddress(wl.TransactionHash), logIndex, blockNumber)
	if el.Topic0 != nil {
		if name, ok := types.EventNameForTopic0(*el.Topic0); ok {
			el.EventName = &name
		}
	}

	record := types.EnrichedRecord{
		Table: "logs",
		Partition: types.PartitionKey{
			ChainIDString: header.ChainIDString(),
			BlockDate:     types.BlockDate(header.Timestamp),
			Shard:         types.Shard(el.TxHash, 64),
		},
		Fields: map[string]interface{}{
			"address":            el.Address,
			"topic0":             el.Topic0,
			"topic1":             el.Topic1,
			"topic2":             el.Topic2,
			"topic3":             el.Topic3,
			"data":               el.Data,
			"log_index":          el.LogIndex,
			"tx_hash":            el.TxHash,
			"block_number":       el.BlockNumber,
			"is_anonymous_event": el.IsAnonymousEvent,
			"ingested_at":        header.Timestamp,
			"chain_id":           header.ChainID,
		},
	}
	body, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshaling log row")
	}
	return errors.Wrap(i.bus.Publish(ctx, LogsWriteSubject(header.Network, header.Subnet), body), "publishing log row")
}

// scheduleFromLog extracts up to four candidate target keys: the log
// address plus any 20-byte addresses recoverable from indexed topics 1..3,
// and emits one event-driven schedule request if any candidate is found.
func (i *Ingestor) scheduleFromLog(ctx context.Context, header chain.BlockHeader, wl wireLog) error {
	candidates := candidateTargetKeys(header, wl)
	if len(candidates) == 0 {
		return nil
	}

	logIndex, _ := types.HexUint64(wl.LogIndex)
	blockNumber, err := types.HexUint64(wl.BlockNumber)
	if err != nil {
		blockNumber = header.BlockNumber
	}

	evmLog := alerttypes.EvmLogV1{
		Data:           wl.Data,
		TxHash:         types.NormalizeAddress(wl.TransactionHash),
		LogIndex:       logIndex,
		BlockNumber:    blockNumber,
		BlockTimestamp: header.Timestamp,
	}
	if len(wl.Topics) > 0 {
		evmLog.Topic0 = strings.ToLower(wl.Topics[0])
	}
	if len(wl.Topics) > 1 {
		evmLog.Topic1 = strings.ToLower(wl.Topics[1])
	}
	if len(wl.Topics) > 2 {
		evmLog.Topic2 = strings.ToLower(wl.Topics[2])
	}
	if len(wl.Topics) > 3 {
		evmLog.Topic3 = strings.ToLower(wl.Topics[3])
	}

	req := struct {
		Kind      alerttypes.EventKind    `json:"kind"`
		Network   string                  `json:"network"`
		Subnet    string                  `json:"subnet"`
		ChainID   int64                   `json:"chain_id"`
		Candidates []alerttypes.TargetKey `json:"candidates"`
		Log       alerttypes.EvmLogV1     `json:"log"`
	}{
		Kind:       alerttypes.EventKindLog,
		Network:    string(header.Network),
		Subnet:     string(header.Subnet),
		ChainID:    int64(header.ChainID),
		Candidates: candidates,
		Log:        evmLog,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshaling schedule request")
	}
	return errors.Wrap(i.bus.Publish(ctx, ScheduleEventSubject, body), "publishing schedule request")
}

// candidateTargetKeys extracts up to 4 candidate target keys: the log
// address, plus any 20-byte addresses recoverable from indexed topics 1..3
// (a topic is address-shaped if it's a 32-byte word with 12 leading zero
// bytes).
func candidateTargetKeys(header chain.BlockHeader, wl wireLog) []alerttypes.TargetKey {
	var out []alerttypes.TargetKey
	if wl.Address != "" {
		out = append(out, alerttypes.NewTargetKey(string(header.Network), string(header.Subnet), wl.Address))
	}
	for idx := 1; idx < len(wl.Topics) && idx <= 3; idx++ {
		if addr, ok := addressFromTopic(wl.Topics[idx]); ok {
			out = append(out, alerttypes.NewTargetKey(string(header.Network), string(header.Subnet), addr))
		}
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

func addressFromTopic(topic string) (string, bool) {
	t := strings.TrimPrefix(strings.ToLower(topic), "0x")
	if len(t) != 64 || t[:24] != strings.Repeat("0", 24) {
		return "", false
	}
	addr := t[24:]
	if addr == strings.Repeat("0", 40) {
		return "", false
	}
	return "0x" + addr, true
}
