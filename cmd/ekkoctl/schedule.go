package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Replay event-driven alert scheduling",
	Long:  `Replay event-driven alert scheduling`,
	Args:  cobra.ExactArgs(1),
}

var scheduleEventCmd = &cobra.Command{
	Use:   "event",
	Short: "Publish a one-shot EventRequest to the scheduler",
	Long:  `Publishes a one-shot EventRequest to the scheduler's event-driven intake subject, as if a candidate target had just been extracted from a transfer or log`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		network, _ := cmd.Flags().GetString("network")
		subnet, _ := cmd.Flags().GetString("subnet")
		chainID, _ := cmd.Flags().GetInt64("chain-id")
		kind, _ := cmd.Flags().GetString("kind")
		targets, _ := cmd.Flags().GetStringSlice("target")

		if network == "" || subnet == "" || len(targets) == 0 {
			return fmt.Errorf("--network, --subnet and at least one --target are required")
		}

		eventKind := alerttypes.EventKindTx
		if kind == "log" {
			eventKind = alerttypes.EventKindLog
		}

		candidates := make([]alerttypes.TargetKey, len(targets))
		for i, t := range targets {
			candidates[i] = alerttypes.TargetKey(t)
		}

		req := scheduler.EventRequest{
			Kind:       eventKind,
			Network:    network,
			Subnet:     subnet,
			ChainID:    chainID,
			Candidates: candidates,
		}

		natsURL, _ := cmd.Flags().GetString("nats-url")
		natsBus, err := bus.NewNatsBus(natsURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("connecting to nats: %s", err)
		}
		defer func() { _ = natsBus.Close(context.Background()) }()

		body, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshaling event request: %s", err)
		}
		if err := natsBus.Publish(cmd.Context(), scheduler.EventDrivenSubject, body); err != nil {
			return fmt.Errorf("publishing event request: %s", err)
		}

		fmt.Printf("published event request for %d target(s) on %s/%s\n", len(candidates), network, subnet)
		return nil
	},
}
