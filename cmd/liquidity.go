package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/chains"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
)

var liquidityNetwork string

var liquidityCmd = &cobra.Command{
	Use:   "liquidity",
	Short: "List liquidity sources the aggregator routes through",
	Long: `List the DEX protocols the OKX aggregator can route through on a
network, grouped by protocol family.

Examples:
  okx-dex liquidity
  okx-dex liquidity --network xlayer`,
	Run: runLiquidity,
}

func init() {
	rootCmd.AddCommand(liquidityCmd)

	liquidityCmd.Flags().StringVar(&liquidityNetwork, "network", "", "Network to list sources for (default: base)")
}

func runLiquidity(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	chainID, err := chains.ResolveChainID(liquidityNetwork)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

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
		s.Suffix = " Fetching liquidity sources..."
		s.Start()
	}

	sources, err := apiClient.LiquiditySources(context.Background(), chainID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(sources, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println()
	fmt.Println(okx.FormatLiquiditySources(sources, chains.Name(chainID)))
	fmt.Println()
}
