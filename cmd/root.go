package cmd

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/redeslab/lsr/state"
)

var (
	centralConfigPath = "central.yaml"
	nodeConfigPath    = "node.yaml"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lsr",
	Short: "Link-state routing lab CLI",
	Long: `lsr runs routing nodes over a pub/sub transport. Each node floods its
adjacency, builds a link-state database and forwards user messages along
shortest paths.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeConfigPath, "node-config", "n", nodeConfigPath, "node-specific config")
	rootCmd.PersistentFlags().StringVarP(&centralConfigPath, "central-config", "c", centralConfigPath, "network-global config")
}

func loadCentralConfig() (state.CentralCfg, error) {
	var centralCfg state.CentralCfg
	file, err := os.ReadFile(centralConfigPath)
	if err != nil {
		return centralCfg, err
	}
	if err := yaml.Unmarshal(file, &centralCfg); err != nil {
		return centralCfg, err
	}
	return centralCfg, state.CentralConfigValidator(&centralCfg)
}

func loadNodeConfig(centralCfg *state.CentralCfg) (state.LocalCfg, error) {
	var nodeCfg state.LocalCfg
	file, err := os.ReadFile(nodeConfigPath)
	if err != nil {
		return nodeCfg, err
	}
	if err := yaml.Unmarshal(file, &nodeCfg); err != nil {
		return nodeCfg, err
	}
	return nodeCfg, state.NodeConfigValidator(centralCfg, &nodeCfg)
}
