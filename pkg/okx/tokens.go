package okx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

// Token is an aggregator-listed token on a specific chain.
type Token struct {
	Symbol          string
	Name            string
	ContractAddress string
	Decimals        int32
	LogoURL         string
	ChainID         int64
}

// wire shape of /all-tokens entries; numeric fields arrive as strings.
type tokenEntry struct {
	Decimals             string `json:"decimals"`
	TokenContractAddress string `json:"tokenContractAddress"`
	TokenLogoURL         string `json:"tokenLogoUrl"`
	TokenName            string `json:"tokenName"`
	TokenSymbol          string `json:"tokenSymbol"`
}

// ListTokens fetches the tokens the aggregator supports on a chain. The list
// is fetched fresh per call; callers hold on to it for the duration of one
// pipeline run only.
func (c *Client) ListTokens(ctx context.Context, chainID int64) ([]Token, error) {
	query := url.Values{}
	query.Set("chainIndex", strconv.FormatInt(chainID, 10))

	var entries []tokenEntry
	if err := c.get(ctx, "/api/v5/dex/aggregator/all-tokens", query, &entries); err != nil {
		return nil, fmt.Errorf("list tokens for chain %d: %w", chainID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("chain %d: %w", chainID, types.ErrNoTokens)
	}

	tokens := make([]Token, 0, len(entries))
	for _, e := range entries {
		decimals, err := strconv.ParseInt(e.Decimals, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("token %s on chain %d: bad decimals %q: %w", e.TokenSymbol, chainID, e.Decimals, err)
		}
		tokens = append(tokens, Token{
			Symbol:          e.TokenSymbol,
			Name:            e.TokenName,
			ContractAddress: e.TokenContractAddress,
			Decimals:        int32(decimals),
			LogoURL:         e.TokenLogoURL,
			ChainID:         chainID,
		})
	}
	return tokens, nil
}

// FindTokenBySymbol returns the token matching symbol, case-insensitively,
// or nil when the list does not carry it. Callers must reject a nil token
// before building instructions.
func FindTokenBySymbol(tokens []Token, symbol string) *Token {
	want := strings.ToUpper(symbol)
	for i := range tokens {
		if strings.ToUpper(tokens[i].Symbol) == want {
			return &tokens[i]
		}
	}
	return nil
}

// FindTokenByAddress returns the token with the given contract address,
// compared lower-cased, or nil when absent.
func FindTokenByAddress(tokens []Token, contractAddress string) *Token {
	want := strings.ToLower(contractAddress)
	for i := range tokens {
		if strings.ToLower(tokens[i].ContractAddress) == want {
			return &tokens[i]
		}
	}
	return nil
}

// SupportedChain is one chain the aggregator routes on.
type SupportedChain struct {
	ChainID    int64
	ChainIndex int64
}

type supportedChainEntry struct {
	ChainID    string `json:"chainId"`
	ChainIndex string `json:"chainIndex"`
}

// SupportedChains lists all chains the aggregator supports.
func (c *Client) SupportedChains(ctx context.Context) ([]SupportedChain, error) {
	var entries []supportedChainEntry
	if err := c.get(ctx, "/api/v5/dex/aggregator/supported/chain", nil, &entries); err != nil {
		return nil, fmt.Errorf("list supported chains: %w", err)
	}

	out := make([]SupportedChain, 0, len(entries))
	for _, e := range entries {
		chainID, _ := strconv.ParseInt(e.ChainID, 10, 64)
		chainIndex, _ := strconv.ParseInt(e.ChainIndex, 10, 64)
		out = append(out, SupportedChain{ChainID: chainID, ChainIndex: chainIndex})
	}
	return out, nil
}
