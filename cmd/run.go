package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/redeslab/lsr/core"
	"github.com/redeslab/lsr/transport"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one routing node",
	Long: `Runs a single node against the redis broker named in the node config,
until interrupted. Every other node of the topology is expected to run the
same way, on this host or elsewhere.`,
	Run: func(cmd *cobra.Command, args []string) {
		centralCfg, err := loadCentralConfig()
		if err != nil {
			slog.Error("invalid central config", "err", err)
			os.Exit(1)
		}
		nodeCfg, err := loadNodeConfig(&centralCfg)
		if err != nil {
			slog.Error("invalid node config", "err", err)
			os.Exit(1)
		}
		if nodeCfg.Redis == nil {
			slog.Error("node config has no redis broker")
			os.Exit(1)
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bus, err := transport.NewRedisBus(ctx, *nodeCfg.Redis, slog.Default())
		if err != nil {
			slog.Error("cannot reach broker", "err", err)
			os.Exit(1)
		}
		defer bus.Close()

		if err := core.Start(ctx, centralCfg, nodeCfg, bus, level, nil); err != nil {
			slog.Error("node failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
}
