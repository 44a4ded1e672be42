package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/chains"
	"github.com/Nith567/okx-dex-mcp/pkg/evm"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
	"github.com/Nith567/okx-dex-mcp/pkg/units"
)

var balanceNetwork string

var balanceCmd = &cobra.Command{
	Use:   "balance [token-symbol|token-address]",
	Short: "Check the signer's token balance",
	Long: `Read the signer's balance from the chain. With no argument the native
balance is shown. A symbol is resolved through the aggregator's token
directory; a 0x address is read directly.

Examples:
  okx-dex balance
  okx-dex balance USDC
  okx-dex balance 0x4200000000000000000000000000000000000006 --network base`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&balanceNetwork, "network", "", "Network to read from (default: base)")
}

func runBalance(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	chainID, err := chains.ResolveChainID(balanceNetwork)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	signer, err := cfg.SignerAddress()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Reading balance..."
		s.Start()
	}

	symbol, amount, err := readBalance(cmd.Context(), cfg, log, chainID, signer, args)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]any{
			"network": chains.Name(chainID),
			"address": signer.Hex(),
			"token":   symbol,
			"balance": amount,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  Address: %s\n", color.CyanString(signer.Hex()))
	fmt.Printf("  Network: %s\n", chains.Name(chainID))
	fmt.Printf("  Balance: %s %s\n\n", color.GreenString(amount), color.YellowString(symbol))
}

func readBalance(ctx context.Context, cfg *config.Config, log *zap.Logger, chainID int64, signer common.Address, args []string) (symbol, amount string, err error) {
	reader, err := evm.Dial(chains.RPCURL(chainID))
	if err != nil {
		return "", "", err
	}
	defer reader.Close()

	// Native balance when no token is given.
	if len(args) == 0 {
		wei, err := reader.NativeBalance(ctx, signer)
		if err != nil {
			return "", "", err
		}
		return "ETH", units.Format(wei, 18), nil
	}

	arg := args[0]
	var token common.Address
	var decimals int32
	if strings.HasPrefix(arg, "0x") {
		token = common.HexToAddress(arg)
		symbol, err = reader.TokenSymbol(ctx, token)
		if err != nil {
			return "", "", err
		}
		d, err := reader.TokenDecimals(ctx, token)
		if err != nil {
			return "", "", err
		}
		decimals = int32(d)
	} else {
		apiClient, err := newOKXClient(cfg, log)
		if err != nil {
			return "", "", err
		}
		tokens, err := apiClient.ListTokens(ctx, chainID)
		if err != nil {
			return "", "", err
		}
		entry := okx.FindTokenBySymbol(tokens, arg)
		if entry == nil {
			return "", "", fmt.Errorf("token %s not found on %s", strings.ToUpper(arg), chains.Name(chainID))
		}
		token = common.HexToAddress(entry.ContractAddress)
		symbol = entry.Symbol
		decimals = entry.Decimals
	}

	raw, err := reader.TokenBalance(ctx, token, signer)
	if err != nil {
		return "", "", err
	}
	return symbol, units.Format(raw, decimals), nil
}
