package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/chains"
	"github.com/Nith567/okx-dex-mcp/pkg/evm"
	"github.com/Nith567/okx-dex-mcp/pkg/mee"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
	"github.com/Nith567/okx-dex-mcp/pkg/swap"
)

var rootCmd = &cobra.Command{
	Use:   "okx-dex",
	Short: "A CLI for token swaps using the OKX DEX aggregator and gasless execution",
	Long: `okx-dex is a command-line tool for swapping tokens through the OKX DEX
aggregator. Swaps execute as gasless instruction bundles: approval, swap and
any follow-on deposit settle together in a single supertransaction.

Examples:
  okx-dex swap 100 USDC to WETH on base
  okx-dex quote 1 WETH to USDC
  okx-dex deposit 0.5 WETH
  okx-dex list-tokens --network base
  okx-dex status <hash>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

// newLogger builds the command logger. Verbose mode gets human-readable
// debug output, otherwise only warnings reach the terminal.
func newLogger(verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newOKXClient(cfg *config.Config, log *zap.Logger) (*okx.Client, error) {
	opts := []okx.Option{okx.WithLogger(log)}
	if cfg.OKXBaseURL != "" {
		opts = append(opts, okx.WithBaseURL(cfg.OKXBaseURL))
	}
	return okx.NewClient(okx.Credentials{
		APIKey:     cfg.OKXAPIKey,
		SecretKey:  cfg.OKXSecretKey,
		Passphrase: cfg.OKXPassphrase,
	}, opts...)
}

func newMEEClient(cfg *config.Config, log *zap.Logger) *mee.Client {
	opts := []mee.Option{mee.WithLogger(log)}
	if cfg.MEEBaseURL != "" {
		opts = append(opts, mee.WithBaseURL(cfg.MEEBaseURL))
	}
	if cfg.PollInterval > 0 {
		opts = append(opts, mee.WithPollInterval(cfg.PollInterval))
	}
	if cfg.PollTimeout > 0 {
		opts = append(opts, mee.WithPollTimeout(cfg.PollTimeout))
	}
	return mee.NewClient(opts...)
}

// newPipeline wires the full execution pipeline for commands that submit
// bundles. It needs a private key to derive the signer address.
func newPipeline(cfg *config.Config, log *zap.Logger) (*swap.Pipeline, error) {
	signer, err := cfg.SignerAddress()
	if err != nil {
		return nil, err
	}

	okxClient, err := newOKXClient(cfg, log)
	if err != nil {
		return nil, err
	}
	meeClient := newMEEClient(cfg, log)

	return swap.New(okxClient, meeClient, signer,
		swap.WithSlippage(cfg.Slippage),
		swap.WithLogger(log),
		swap.WithBalanceChecks(func(chainID int64) (*evm.Reader, error) {
			return evm.Dial(chains.RPCURL(chainID))
		}),
	), nil
}
