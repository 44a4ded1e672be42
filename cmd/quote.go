package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/chains"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
	"github.com/Nith567/okx-dex-mcp/pkg/parser"
)

var quoteNetwork string

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token> [on <network>]",
	Short: "Get a swap quote without executing",
	Long: `Fetch the aggregator's best route for a swap without submitting anything.
The quote shows the expected output, price impact, gas estimate and how the
trade would be split across liquidity venues.

Examples:
  okx-dex quote 100 USDC to WETH
  okx-dex quote 1 WETH to USDT on optimism`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteNetwork, "network", "", "Network to quote on (default: base)")
}

func runQuote(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if quoteNetwork != "" {
		swapReq.Network = quoteNetwork
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	chainID, err := chains.ResolveChainID(swapReq.Network)
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
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	params := okx.QuoteParams{
		ChainID:         chainID,
		Amount:          swapReq.Amount,
		FromTokenSymbol: swapReq.FromTokenSymbol,
		ToTokenSymbol:   swapReq.ToTokenSymbol,
	}
	quote, err := apiClient.GetQuote(context.Background(), params)

	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println()
	fmt.Println(okx.FormatQuote(quote, params, chains.Name(chainID)))
	fmt.Println()
}
