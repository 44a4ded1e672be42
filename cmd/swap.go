package cmd

import (
	"bufio"
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
	"github.com/Nith567/okx-dex-mcp/pkg/parser"
	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

var (
	swapNetwork   string
	recipientAddr string
	noConfirm     bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token> [on <network>]",
	Short: "Swap tokens through the OKX DEX aggregator",
	Long: `Swap tokens on a single chain using the OKX DEX aggregator for routing
and a gasless execution bundle for settlement. The approval and the swap are
submitted together and settle as one supertransaction; gas is paid from the
input token.

Examples:
  # Swap on the default network (base)
  okx-dex swap 100 USDC to WETH

  # Swap on a specific network
  okx-dex swap 0.5 WETH to USDT on optimism
  okx-dex swap 0.5 WETH to USDT --network optimism

  # Send the output to another address
  okx-dex swap 100 USDC to WETH --recipient 0xAbc...

  # Skip the confirmation prompt
  okx-dex swap 100 USDC to WETH --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&swapNetwork, "network", "", "Network to swap on (default: base)")
	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address (optional - defaults to the signer)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	// Parse the command
	commandStr := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Flags override the parsed command
	if swapNetwork != "" {
		swapReq.Network = swapNetwork
	}
	if recipientAddr != "" {
		swapReq.Recipient = recipientAddr
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	// Load configuration
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

	// Ask for confirmation before anything is submitted
	if !noConfirm && !jsonOutput {
		network := swapReq.Network
		if network == "" {
			network = "base"
		}
		fmt.Printf("\nSwap %s %s to %s on %s\n", swapReq.Amount, swapReq.FromTokenSymbol, swapReq.ToTokenSymbol, network)
		if swapReq.Recipient != "" {
			fmt.Printf("Recipient: %s\n", swapReq.Recipient)
		}
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}

	result := pipeline.ExecuteTokenSwap(context.Background(), *swapReq)

	if !jsonOutput {
		s.Stop()
	}

	displayResult(result, jsonOutput, verbose)
	if !result.Success {
		os.Exit(1)
	}
}

func displayResult(result *types.SwapResult, jsonOutput, verbose bool) {
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	if result.Success {
		color.Green("                    SWAP SETTLED")
	} else {
		color.Red("                    SWAP FAILED")
	}
	fmt.Println(strings.Repeat("=", 60))

	if result.Hash != "" {
		fmt.Printf("\n  Hash:      %s\n", color.CyanString(result.Hash))
	}
	if result.ScanLink != "" {
		fmt.Printf("  Explorer:  %s\n", color.CyanString(result.ScanLink))
	}
	if result.Error != "" {
		fmt.Printf("\n  Error:     %s\n", color.RedString(result.Error))
	}

	if verbose && len(result.Receipt) > 0 {
		fmt.Printf("\nReceipt:\n%s\n", string(result.Receipt))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")

	if result.Success && result.Hash != "" {
		fmt.Println("You can re-check the settlement later using:")
		color.Cyan("  okx-dex status %s\n", result.Hash)
	}
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
