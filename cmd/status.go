package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Nith567/okx-dex-mcp/config"
	"github.com/Nith567/okx-dex-mcp/pkg/mee"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <hash>",
	Short: "Check the settlement status of a supertransaction",
	Long: `Check the execution status of a submitted bundle by its
supertransaction hash.

Examples:
  okx-dex status 0x1234...abcd
  okx-dex status 0x1234...abcd --watch
  okx-dex status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until settlement")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	hash := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(verbose)
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	meeClient := newMEEClient(cfg, log)

	if watchStatus {
		watchReceipt(meeClient, hash, jsonOutput)
	} else {
		checkReceipt(meeClient, hash, jsonOutput)
	}
}

func checkReceipt(meeClient *mee.Client, hash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking settlement status..."
		s.Start()
	}

	receipt, err := meeClient.GetReceipt(context.Background(), hash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		fmt.Println(string(receipt.Raw))
	} else {
		displayReceipt(receipt)
	}
}

func watchReceipt(meeClient *mee.Client, hash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching settlement (hash: %s)\n", color.CyanString(hash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := meeClient.GetReceipt(context.Background(), hash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayReceipt(receipt)
			if receipt.Successful() || receipt.Status == "MINED_FAIL" || receipt.Status == "FAILED" || receipt.Status == "REVERTED" {
				return
			}
		}
		<-ticker.C
	}
}

func displayReceipt(receipt *mee.Receipt) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                    SETTLEMENT STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Hash:     %s\n", color.CyanString(receipt.Hash))
	fmt.Printf("  Status:   %s\n", coloredStatus(receipt.Status))
	fmt.Printf("  Details:  %s\n", color.CyanString(mee.ScanLink(receipt.Hash)))

	for _, link := range receipt.ExplorerLinks {
		fmt.Printf("  Tx:       %s\n", color.HiBlackString(link))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredStatus(status string) string {
	switch strings.ToUpper(status) {
	case "MINED_SUCCESS", "SUCCESS":
		return color.GreenString(status)
	case "PENDING", "SUBMITTED", "MINING":
		return color.YellowString(status)
	case "MINED_FAIL", "FAILED", "REVERTED":
		return color.RedString(status)
	default:
		return status
	}
}
