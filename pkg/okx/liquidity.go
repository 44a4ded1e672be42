package okx

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// LiquiditySource is one DEX the aggregator can route through.
type LiquiditySource struct {
	ID   string `json:"id"`
	Logo string `json:"logo"`
	Name string `json:"name"`
}

// LiquiditySources lists the DEXs the aggregator routes through on a chain.
func (c *Client) LiquiditySources(ctx context.Context, chainID int64) ([]LiquiditySource, error) {
	query := url.Values{}
	query.Set("chainIndex", strconv.FormatInt(chainID, 10))

	var sources []LiquiditySource
	if err := c.get(ctx, "/api/v5/dex/aggregator/get-liquidity", query, &sources); err != nil {
		return nil, fmt.Errorf("liquidity sources for chain %d: %w", chainID, err)
	}
	return sources, nil
}

var versionSuffix = regexp.MustCompile(`\s+V[0-9].*$`)

// FormatLiquiditySources renders the source list grouped by DEX family.
func FormatLiquiditySources(sources []LiquiditySource, chainName string) string {
	groups := make(map[string][]LiquiditySource)
	for _, source := range sources {
		base := versionSuffix.ReplaceAllString(source.Name, "")
		groups[base] = append(groups[base], source)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Supported DEX Liquidity Sources on %s (%d sources):\n\n", chainName, len(sources))
	for _, name := range names {
		fmt.Fprintf(&b, "%s:\n", name)
		for _, source := range groups[name] {
			fmt.Fprintf(&b, "  - %s (ID: %s)\n", source.Name, source.ID)
		}
	}
	b.WriteString("\nThe aggregator automatically routes through these sources for the best price.")
	return b.String()
}
