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
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
)

var (
	tokensNetwork string
	filterSymbol  string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens supported by the aggregator",
	Long: `List all tokens the OKX DEX aggregator supports on a network.

Examples:
  okx-dex list-tokens
  okx-dex list-tokens --network optimism
  okx-dex list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&tokensNetwork, "network", "", "Network to list tokens for (default: base)")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	chainID, err := chains.ResolveChainID(tokensNetwork)
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
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}

	tokens, err := apiClient.ListTokens(context.Background(), chainID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Apply the symbol filter
	filtered := tokens
	if filterSymbol != "" {
		var temp []okx.Token
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered, chains.Name(chainID))
	}
}

func displayTokens(tokens []okx.Token, networkName string) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                     SUPPORTED TOKENS ON %s", strings.ToUpper(networkName))
	fmt.Println(strings.Repeat("=", 90))

	for _, token := range tokens {
		address := token.ContractAddress
		if len(address) > 44 {
			address = address[:41] + "..."
		}

		fmt.Printf("  %-10s  %2d decimals  %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens on %s\n\n", len(tokens), networkName)
}
