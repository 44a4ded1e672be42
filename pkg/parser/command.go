package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 100 USDC to WETH"
//   - "1.5 WETH to USDC on base"
//   - "0.01 WBTC to USDT on xlayer"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	// Pattern: <amount> <from_token> TO <to_token> [ON <network>]
	pattern := regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)(?:\s+ON\s+([A-Z0-9]+))?$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token> [on <network>]' (e.g., 'swap 100 USDC to WETH on base')")
	}

	return &types.SwapRequest{
		Amount:          matches[1],
		FromTokenSymbol: matches[2],
		ToTokenSymbol:   matches[3],
		Network:         strings.ToLower(matches[4]),
	}, nil
}

// ParseDepositCommand parses a deposit command
// Examples:
//   - "deposit 0.5 WETH"
//   - "100 USDC"
func ParseDepositCommand(command string) (*types.DepositRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "DEPOSIT ")

	pattern := regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid deposit command format. Expected: 'deposit <amount> <token>' (e.g., 'deposit 0.5 WETH')")
	}

	return &types.DepositRequest{
		Amount:          matches[1],
		FromTokenSymbol: matches[2],
	}, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.FromTokenSymbol == "" {
		return fmt.Errorf("source token is required")
	}
	if req.ToTokenSymbol == "" {
		return fmt.Errorf("destination token is required")
	}
	return nil
}
