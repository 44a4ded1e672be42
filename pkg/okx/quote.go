package okx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
	"github.com/Nith567/okx-dex-mcp/pkg/units"
)

// QuoteTokenInfo describes one side of a quoted pair.
type QuoteTokenInfo struct {
	Decimal              string `json:"decimal"`
	IsHoneyPot           bool   `json:"isHoneyPot"`
	TaxRate              string `json:"taxRate"`
	TokenContractAddress string `json:"tokenContractAddress"`
	TokenSymbol          string `json:"tokenSymbol"`
	TokenUnitPrice       string `json:"tokenUnitPrice"`
}

// DexProtocol is one venue inside a routed hop.
type DexProtocol struct {
	DexName string `json:"dexName"`
	Percent string `json:"percent"`
}

// SubRouter is one hop of a route.
type SubRouter struct {
	DexProtocol []DexProtocol  `json:"dexProtocol"`
	FromToken   QuoteTokenInfo `json:"fromToken"`
	ToToken     QuoteTokenInfo `json:"toToken"`
}

// DexRouter is one top-level route with its share of the trade.
type DexRouter struct {
	Router        string      `json:"router"`
	RouterPercent string      `json:"routerPercent"`
	SubRouterList []SubRouter `json:"subRouterList"`
}

// QuoteCompare is an alternative single-venue quote for comparison.
type QuoteCompare struct {
	AmountOut string `json:"amountOut"`
	DexLogo   string `json:"dexLogo"`
	DexName   string `json:"dexName"`
	TradeFee  string `json:"tradeFee"`
}

// Quote is the aggregator's best-route estimate for a pair and amount. It is
// advisory only: execution never consumes it, callers display it. All amounts
// are smallest-unit decimal strings.
type Quote struct {
	ChainID              string         `json:"chainId"`
	DexRouterList        []DexRouter    `json:"dexRouterList"`
	EstimateGasFee       string         `json:"estimateGasFee"`
	FromToken            QuoteTokenInfo `json:"fromToken"`
	FromTokenAmount      string         `json:"fromTokenAmount"`
	OriginToTokenAmount  string         `json:"originToTokenAmount"`
	PriceImpactPercent   string         `json:"priceImpactPercentage"`
	QuoteCompareList     []QuoteCompare `json:"quoteCompareList"`
	SwapMode             string         `json:"swapMode"`
	ToToken              QuoteTokenInfo `json:"toToken"`
	ToTokenAmount        string         `json:"toTokenAmount"`
	TradeFee             string         `json:"tradeFee"`
}

// QuoteParams identifies the pair and human amount to quote.
type QuoteParams struct {
	ChainID         int64
	Amount          string
	FromTokenSymbol string
	ToTokenSymbol   string
}

// GetQuote resolves both symbols against the token directory, scales the
// human amount to the input token's smallest unit, and asks the aggregator
// for its best route.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*Quote, error) {
	tokens, err := c.ListTokens(ctx, params.ChainID)
	if err != nil {
		return nil, err
	}

	fromToken := FindTokenBySymbol(tokens, params.FromTokenSymbol)
	if fromToken == nil {
		return nil, fmt.Errorf("token %s on chain %d: %w", params.FromTokenSymbol, params.ChainID, types.ErrTokenNotSupported)
	}
	toToken := FindTokenBySymbol(tokens, params.ToTokenSymbol)
	if toToken == nil {
		return nil, fmt.Errorf("token %s on chain %d: %w", params.ToTokenSymbol, params.ChainID, types.ErrTokenNotSupported)
	}

	amount, err := units.Parse(params.Amount, fromToken.Decimals)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("chainIndex", strconv.FormatInt(params.ChainID, 10))
	query.Set("amount", amount.String())
	query.Set("fromTokenAddress", fromToken.ContractAddress)
	query.Set("toTokenAddress", toToken.ContractAddress)

	var quotes []Quote
	if err := c.get(ctx, "/api/v5/dex/aggregator/quote", query, &quotes); err != nil {
		return nil, fmt.Errorf("quote %s -> %s: %w", params.FromTokenSymbol, params.ToTokenSymbol, err)
	}
	if len(quotes) == 0 || len(quotes[0].DexRouterList) == 0 {
		return nil, fmt.Errorf("quote %s -> %s on chain %d: %w", params.FromTokenSymbol, params.ToTokenSymbol, params.ChainID, types.ErrNoRouteFound)
	}

	return &quotes[0], nil
}

// FormatQuote renders a quote for human display. It is a pure function of
// the quote value: no further network calls.
func FormatQuote(quote *Quote, params QuoteParams, networkName string) string {
	toDecimals, _ := strconv.ParseInt(quote.ToToken.Decimal, 10, 32)
	outputAmount := units.FormatString(quote.ToTokenAmount, int32(toDecimals))

	var b strings.Builder
	fmt.Fprintf(&b, "Token Swap Quote on %s\n\n", networkName)

	fmt.Fprintf(&b, "Trade Details:\n")
	fmt.Fprintf(&b, "  Input:        %s %s (%s USD each)\n", params.Amount, quote.FromToken.TokenSymbol, quote.FromToken.TokenUnitPrice)
	fmt.Fprintf(&b, "  Output:       %s %s (%s USD each)\n", outputAmount, quote.ToToken.TokenSymbol, quote.ToToken.TokenUnitPrice)
	fmt.Fprintf(&b, "  Price Impact: %s%%\n", quote.PriceImpactPercent)
	fmt.Fprintf(&b, "  Est. Gas:     %s gas units\n", quote.EstimateGasFee)
	fmt.Fprintf(&b, "  Trade Fee:    %s USD\n\n", quote.TradeFee)

	if len(quote.DexRouterList) > 0 {
		best := quote.DexRouterList[0]
		fmt.Fprintf(&b, "Best Route (%s%% of trade):\n", best.RouterPercent)
		for i, sub := range best.SubRouterList {
			for _, protocol := range sub.DexProtocol {
				fmt.Fprintf(&b, "  %d. %s (%s%%)\n", i+1, protocol.DexName, protocol.Percent)
			}
		}
		b.WriteString("\n")
	}

	if len(quote.QuoteCompareList) > 0 {
		b.WriteString("Alternative DEX Comparisons:\n")
		compares := quote.QuoteCompareList
		if len(compares) > 5 {
			compares = compares[:5]
		}
		for i, compare := range compares {
			altOutput := units.FormatString(compare.AmountOut, int32(toDecimals))
			fmt.Fprintf(&b, "  %d. %s: %s %s (Fee: %s USD)\n", i+1, compare.DexName, altOutput, quote.ToToken.TokenSymbol, compare.TradeFee)
		}
		if extra := len(quote.QuoteCompareList) - 5; extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more options\n", extra)
		}
	}

	b.WriteString("\nThis is a quote only. Use the swap command to execute the trade.")
	return b.String()
}
