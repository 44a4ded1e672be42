package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/chains"
)

var chainsCmd = &cobra.Command{
	Use:     "list-chains",
	Aliases: []string{"chains"},
	Short:   "List networks supported for swaps",
	Long: `List the networks this tool can swap on, cross-checked against the
chains the OKX DEX aggregator currently routes.

Examples:
  okx-dex list-chains
  okx-dex list-chains --json`,
	Run: runListChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}

func runListChains(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient, err := newOKXClient(cfg, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported chains..."
		s.Start()
	}

	supported, err := apiClient.SupportedChains(context.Background())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	aggregatorChains := make(map[int64]bool, len(supported))
	for _, c := range supported {
		aggregatorChains[c.ChainID] = true
	}

	type chainInfo struct {
		Network    string `json:"network"`
		ChainID    int64  `json:"chainId"`
		Aggregator bool   `json:"aggregatorSupported"`
	}

	var infos []chainInfo
	for _, network := range chains.SupportedNetworks() {
		chainID, _ := chains.ResolveChainID(network)
		infos = append(infos, chainInfo{
			Network:    network,
			ChainID:    chainID,
			Aggregator: aggregatorChains[chainID],
		})
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(infos, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                   SUPPORTED NETWORKS")
	fmt.Println(strings.Repeat("=", 60))

	for _, info := range infos {
		status := color.GreenString("routable")
		if !info.Aggregator {
			status = color.RedString("not routed by aggregator")
		}
		fmt.Printf("  %-12s  chain %-6d  %s\n", color.YellowString(info.Network), info.ChainID, status)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
