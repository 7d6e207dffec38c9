package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/redeslab/lsr/spf"
)

// tableCmd represents the table command
var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the next-hop table of every node",
	Long: `Computes shortest paths offline from the configured topology and prints
each node's next-hop table, without starting any node.`,
	Run: func(cmd *cobra.Command, args []string) {
		centralCfg, err := loadCentralConfig()
		if err != nil {
			slog.Error("invalid central config", "err", err)
			os.Exit(1)
		}
		g, err := centralCfg.Graph()
		if err != nil {
			slog.Error("invalid topology", "err", err)
			os.Exit(1)
		}

		for _, src := range g.Nodes() {
			fmt.Printf("%s:\n", src)
			table := spf.BuildNextHop(g, src)
			for _, dst := range g.Nodes() {
				if dst == src {
					continue
				}
				hop, ok := table[dst]
				if !ok {
					fmt.Printf("  %s -> unreachable\n", dst)
					continue
				}
				fmt.Printf("  %s -> %s (cost %d)\n", dst, hop.Next, hop.Cost)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
}
