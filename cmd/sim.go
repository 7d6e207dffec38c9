package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/redeslab/lsr/sim"
	"github.com/redeslab/lsr/state"
)

// simCmd represents the sim command
var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Simulate the whole topology in one process",
	Long: `Runs every node of the topology in-process over an in-memory bus,
optionally injects one user message, and prints what arrived.`,
	Run: func(cmd *cobra.Command, args []string) {
		centralCfg, err := loadCentralConfig()
		if err != nil {
			slog.Error("invalid central config", "err", err)
			os.Exit(1)
		}

		proto := state.Protocol(cmd.Flag("protocol").Value.String())
		h, err := sim.NewFromCentral(centralCfg, proto)
		if err != nil {
			slog.Error("cannot build simulation", "err", err)
			os.Exit(1)
		}
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			h.LogLevel = slog.LevelDebug
		}

		if err := h.Start(); err != nil {
			slog.Error("simulation failed to start", "err", err)
			os.Exit(1)
		}
		defer h.Stop()

		settle, _ := cmd.Flags().GetDuration("settle")
		time.Sleep(settle)

		from := state.NodeId(cmd.Flag("from").Value.String())
		to := state.NodeId(cmd.Flag("to").Value.String())
		if from != "" && to != "" {
			ttl, _ := cmd.Flags().GetInt("ttl")
			payload := cmd.Flag("payload").Value.String()
			if err := h.InjectHello(from, to); err != nil {
				slog.Error("cannot inject hello", "err", err)
				os.Exit(1)
			}
			if err := h.InjectMessage(from, to, ttl, payload); err != nil {
				slog.Error("cannot inject message", "err", err)
				os.Exit(1)
			}
			time.Sleep(settle)

			delivered, err := h.Delivered(to)
			if err != nil {
				slog.Error("cannot read deliveries", "err", err)
				os.Exit(1)
			}
			for _, d := range delivered {
				fmt.Printf("%s received %s via %v at cost %d\n",
					to, string(d.Envelope.Payload), d.Path, d.Cost)
			}
			if len(delivered) == 0 {
				fmt.Printf("%s received nothing\n", to)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	simCmd.Flags().StringP("protocol", "p", string(state.ProtocolLinkState), "routing protocol for every node")
	simCmd.Flags().String("from", "", "source node of the injected message")
	simCmd.Flags().String("to", "", "destination node of the injected message")
	simCmd.Flags().String("payload", "hola", "message payload")
	simCmd.Flags().Int("ttl", state.DefaultMessageTTL, "message ttl")
	simCmd.Flags().Duration("settle", 2*time.Second, "how long to let the network converge")
}
