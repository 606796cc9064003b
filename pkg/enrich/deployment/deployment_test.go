package deployment_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/enrich/deployment"
)

func TestAnalyzeBytecodeDetectsEip1167MinimalProxy(t *testing.T) {
	code := "0x363d3d373d3d3d363d73bebebebebebebebebebebebebebebebebebebebe5af43d82803e903d91602b57fd5bf3"
	a := deployment.AnalyzeBytecode(code)
	require.Contains(t, a.Patterns, "EIP-1167")
	require.True(t, a.IsProxy)
	require.Equal(t, deployment.ContractProxy, a.ContractType)
}

func TestAnalyzeBytecodeDetectsErc20Template(t *testing.T) {
	code := "0x" + strings.Repeat("fe", 4) + "a9059cbb" + "095ea7b3" + "70a08231"
	a := deployment.AnalyzeBytecode(code)
	require.Equal(t, deployment.ContractERC20, a.ContractType)
	require.Contains(t, a.Patterns, "token_template")
}

func TestAnalyzeBytecodeHashAndSizeAreDeterministic(t *testing.T) {
	code := "0x6080604052348015600f57600080fd5b50"
	a1 := deployment.AnalyzeBytecode(code)
	a2 := deployment.AnalyzeBytecode(code)
	require.Equal(t, a1.Hash, a2.Hash)
	require.Equal(t, 17, a1.Size)
}

func TestPlaceholderContractAddressIsDeterministic(t *testing.T) {
	a1 := deployment.PlaceholderContractAddress("0xFrom", 5)
	a2 := deployment.PlaceholderContractAddress("0xFrom", 5)
	a3 := deployment.PlaceholderContractAddress("0xFrom", 6)
	require.Equal(t, a1, a2)
	require.NotEqual(t, a1, a3)
	require.Len(t, a1, 42)
}

func TestDeploymentEnricherEmitsRowsAndUsesPlaceholderAddress(t *testing.T) {
	b := bus.NewInMemoryBus()
	var txRecord types.EnrichedRecord
	var addrRows int
	_, err := b.Subscribe(context.Background(), "ducklake.transactions.ethereum.mainnet.write", "", func(_ context.Context, m bus.Message) {
		require.NoError(t, json.Unmarshal(m.Body, &txRecord))
	})
	require.NoError(t, err)
	_, err = b.Subscribe(context.Background(), "ducklake.address_transactions.ethereum.mainnet.write", "", func(context.Context, bus.Message) {
		addrRows++
	})
	require.NoError(t, err)

	typed := types.TypedTransaction{
		Kind: types.KindDeployment,
		Raw: types.RawTransaction{
			Network:         "ethereum",
			Subnet:          "mainnet",
			TransactionHash: "0xTXDEPLOY",
			From:            "0xFrom",
			InputData:       "0x6080604052348015600f57600080fd5b50",
			NonceHex:        "0x3",
			BlockNumber:     100,
			BlockTimestamp:  1_700_000_000,
		},
	}

	e := deployment.New(b)
	require.NoError(t, e.HandleTypedTransaction(context.Background(), typed))

	require.Equal(t, "contract_deployment", txRecord.Fields["transaction_type"])
	require.Equal(t, 2, addrRows)
	require.NotEmpty(t, txRecord.Fields["contract_address"])
}
