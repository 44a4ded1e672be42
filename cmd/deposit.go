package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/parser"
)

var depositNetwork string

var depositCmd = &cobra.Command{
	Use:   "deposit <amount> <token>",
	Short: "Deposit into the Morpho Re7 WETH pool on Base",
	Long: `Deposit tokens into the Morpho Re7 Universal WETH pool on Base. If the
input token is not WETH it is first swapped to WETH through the OKX DEX
aggregator; the swap, the pool approval and the deposit all settle in one
gasless supertransaction. Vault shares are minted to the signer.

Examples:
  # Deposit WETH directly
  okx-dex deposit 0.5 WETH

  # Swap USDC to WETH, then deposit the proceeds
  okx-dex deposit 100 USDC`,
	Args: cobra.MinimumNArgs(1),
	Run:  runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().StringVar(&depositNetwork, "network", "", "Network to deposit on (only base is supported)")
}

func runDeposit(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	depositReq, err := parser.ParseDepositCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if depositNetwork != "" {
		depositReq.Network = depositNetwork
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	pipeline, err := newPipeline(cfg, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		fmt.Printf("\nDepositing %s %s into the Morpho Re7 WETH pool on base\n", depositReq.Amount, depositReq.FromTokenSymbol)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Executing deposit..."
		s.Start()
	}

	result := pipeline.SwapAndDepositMorpho(context.Background(), *depositReq)

	if !jsonOutput {
		s.Stop()
	}

	displayResult(result, jsonOutput, verbose)
	if !result.Success {
		os.Exit(1)
	}
}
