// Command ekkoctl is the pipeline's operator CLI (§6.6): it reaches the bus
// and KV store directly to issue one-shot schedule requests and warm the
// ABI decode cache, without going through streamproc.
package main

import (
	"github.com/spf13/cobra"
)

var cliName = "ekkoctl"

var rootCmd = &cobra.Command{
	Use:   cliName,
	Short: "ekkoctl is the operator CLI for the ekko-streams pipeline",
	Long:  `ekkoctl lets operators replay event-driven alert scheduling and warm the ABI decode cache against a running pipeline`,
	Args:  cobra.ExactArgs(0),
}

func main() {
	_ = rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("nats-url", "nats://127.0.0.1:4222", "NATS bus URL")
	rootCmd.PersistentFlags().String("kv-bucket", "ekko_streams", "JetStream key-value bucket name")

	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleEventCmd)
	scheduleEventCmd.Flags().String("network", "", "chain network (e.g. ethereum)")
	scheduleEventCmd.Flags().String("subnet", "", "chain subnet (e.g. mainnet)")
	scheduleEventCmd.Flags().Int64("chain-id", 0, "numeric chain id")
	scheduleEventCmd.Flags().String("kind", "transfer", "event kind: transfer or log")
	scheduleEventCmd.Flags().StringSlice("target", nil, "candidate target key, repeatable")

	rootCmd.AddCommand(abiCmd)
	abiCmd.AddCommand(abiWarmCmd)
	abiWarmCmd.Flags().String("network", "", "chain network")
	abiWarmCmd.Flags().String("address", "", "contract address")
	abiWarmCmd.Flags().String("abi-file", "", "path to the contract ABI JSON file")
	abiWarmCmd.Flags().String("source", "manual", "abi source label (e.g. etherscan, manual)")
	abiWarmCmd.Flags().Bool("verified", false, "mark the cached abi as verified")
}
