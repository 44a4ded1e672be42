package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		command string
		amount  string
		from    string
		to      string
		network string
	}{
		{"swap 100 USDC to WETH", "100", "USDC", "WETH", ""},
		{"100 USDC to WETH", "100", "USDC", "WETH", ""},
		{"swap 1.5 weth to usdt on optimism", "1.5", "WETH", "USDT", "optimism"},
		{"0.01 WBTC to USDC on xlayer", "0.01", "WBTC", "USDC", "xlayer"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			req, err := ParseSwapCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, req.Amount)
			assert.Equal(t, tt.from, req.FromTokenSymbol)
			assert.Equal(t, tt.to, req.ToTokenSymbol)
			assert.Equal(t, tt.network, req.Network)
		})
	}
}

func TestParseSwapCommandRejectsGarbage(t *testing.T) {
	for _, command := range []string{
		"",
		"swap USDC to WETH",
		"swap 100 USDC WETH",
		"swap 100 USDC to",
		"swap -5 USDC to WETH",
	} {
		_, err := ParseSwapCommand(command)
		assert.Error(t, err, "command %q", command)
	}
}

func TestParseDepositCommand(t *testing.T) {
	req, err := ParseDepositCommand("deposit 0.5 WETH")
	require.NoError(t, err)
	assert.Equal(t, "0.5", req.Amount)
	assert.Equal(t, "WETH", req.FromTokenSymbol)

	req, err = ParseDepositCommand("100 usdc")
	require.NoError(t, err)
	assert.Equal(t, "USDC", req.FromTokenSymbol)

	_, err = ParseDepositCommand("deposit WETH")
	assert.Error(t, err)
}
