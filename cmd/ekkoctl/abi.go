package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/abidecoder"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Manage the ABI decode cache",
	Long:  `Manage the ABI decode cache`,
	Args:  cobra.ExactArgs(1),
}

var abiWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Warm the ABI decode cache for one contract address",
	Long:  `Reads a contract ABI from disk and stores it at the abi decoder's cache key, so decode requests for that address skip the cache-miss path`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		network, _ := cmd.Flags().GetString("network")
		address, _ := cmd.Flags().GetString("address")
		abiFile, _ := cmd.Flags().GetString("abi-file")
		source, _ := cmd.Flags().GetString("source")
		verified, _ := cmd.Flags().GetBool("verified")

		if network == "" || address == "" || abiFile == "" {
			return fmt.Errorf("--network, --address and --abi-file are required")
		}

		abiJSON, err := os.ReadFile(abiFile)
		if err != nil {
			return fmt.Errorf("reading abi file: %s", err)
		}

		natsURL, _ := cmd.Flags().GetString("nats-url")
		kvBucket, _ := cmd.Flags().GetString("kv-bucket")
		natsBus, err := bus.NewNatsBus(natsURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("connecting to nats: %s", err)
		}
		defer func() { _ = natsBus.Close(context.Background()) }()

		js, err := natsBus.Conn().JetStream()
		if err != nil {
			return fmt.Errorf("opening jetstream context: %s", err)
		}
		bucket, err := js.KeyValue(kvBucket)
		if err != nil {
			return fmt.Errorf("binding kv bucket %q (is streamproc running?): %s", kvBucket, err)
		}
		store := kv.NewNatsKV(bucket)

		info := types.AbiInfo{
			Address:  address,
			Network:  network,
			AbiJSON:  string(abiJSON),
			Source:   source,
			Verified: verified,
			CachedAt: time.Now().Unix(),
		}
		if err := abidecoder.StoreAbi(cmd.Context(), store, info); err != nil {
			return fmt.Errorf("storing abi: %s", err)
		}

		fmt.Printf("warmed abi cache for %s on %s\n", address, network)
		return nil
	},
}
