package transfer_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/enrich/transfer"
)

func typedTransfer(valueHex string) types.TypedTransaction {
	to := "0xTo"
	return types.TypedTransaction{
		Kind: types.KindTransfer,
		Raw: types.RawTransaction{
			Network:         "ethereum",
			Subnet:          "mainnet",
			TransactionHash: "0xTX1",
			From:            "0xFrom",
			To:              &to,
			ValueHex:        valueHex,
			GasLimitHex:     "0x5208",
			GasPriceHex:     "0x4a817c800",
			InputData:       "0x",
			BlockNumber:     100,
			BlockTimestamp:  1_700_000_000,
		},
		GasTier: types.GasStandard,
	}
}

func TestTransferEnricherEmitsTransactionAndTwoAddressRows(t *testing.T) {
	b := bus.NewInMemoryBus()
	var txRows, addrRows, scheduled int
	_, err := b.Subscribe(context.Background(), "ducklake.transactions.ethereum.mainnet.write", "", func(context.Context, bus.Message) {
		txRows++
	})
	require.NoError(t, err)
	_, err = b.Subscribe(context.Background(), "ducklake.address_transactions.ethereum.mainnet.write", "", func(context.Context, bus.Message) {
		addrRows++
	})
	require.NoError(t, err)
	_, err = b.Subscribe(context.Background(), transfer.ScheduleEventSubject, "", func(context.Context, bus.Message) {
		scheduled++
	})
	require.NoError(t, err)

	e := transfer.New(b)
	require.NoError(t, e.HandleTypedTransaction(context.Background(), typedTransfer("0xde0b6b3a7640000"))) // 1 ETH

	require.Equal(t, 1, txRows)
	require.Equal(t, 2, addrRows)
	require.Equal(t, 1, scheduled)
}

func TestTransferEnricherClassifiesAmountTier(t *testing.T) {
	b := bus.NewInMemoryBus()
	var record types.EnrichedRecord
	_, err := b.Subscribe(context.Background(), "ducklake.transactions.ethereum.mainnet.write", "", func(_ context.Context, m bus.Message) {
		require.NoError(t, json.Unmarshal(m.Body, &record))
	})
	require.NoError(t, err)

	e := transfer.New(b)
	// 150 ETH -> Whale.
	require.NoError(t, e.HandleTypedTransaction(context.Background(), typedTransfer("0x821ab0d4414980000")))

	require.Equal(t, string(transfer.AmountWhale), record.Fields["amount_tier"])
}

func TestTransferEnricherSkipsScheduleWhenNoAddresses(t *testing.T) {
	b := bus.NewInMemoryBus()
	var scheduled int
	_, err := b.Subscribe(context.Background(), transfer.ScheduleEventSubject, "", func(context.Context, bus.Message) {
		scheduled++
	})
	require.NoError(t, err)

	e := transfer.New(b)
	tx := typedTransfer("0x0")
	tx.Raw.From = ""
	tx.Raw.To = nil
	require.NoError(t, e.HandleTypedTransaction(context.Background(), tx))

	require.Equal(t, 0, scheduled)
}
