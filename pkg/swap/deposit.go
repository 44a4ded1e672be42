package swap

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Nith567/okx-dex-mcp/pkg/chains"
	"github.com/Nith567/okx-dex-mcp/pkg/mee"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
	"github.com/Nith567/okx-dex-mcp/pkg/types"
	"github.com/Nith567/okx-dex-mcp/pkg/units"
)

// Morpho Re7 WETH vault on Base and its deposit asset.
var (
	WETHBase          = common.HexToAddress("0x4200000000000000000000000000000000000006")
	MorphoRe7WETHPool = common.HexToAddress("0xA2Cac0023a4797b4729Db94783405189a4203AFc")
)

const (
	morphoChainID      = int64(8453)
	morphoDepositAsset = "WETH"
)

// SwapAndDepositMorpho deposits into the Morpho WETH vault on Base. When the
// input token is not WETH, a swap is chained in front of the deposit inside
// the same instruction bundle, so one trigger and one settlement cover both:
// approve router, swap to WETH, approve pool, deposit.
//
// The deposit amount is a runtime balance read, not the quote estimate, so
// whatever the swap actually produced is supplied to the pool.
func (p *Pipeline) SwapAndDepositMorpho(ctx context.Context, req types.DepositRequest) *types.SwapResult {
	network := req.Network
	if network == "" {
		network = chains.DefaultNetwork
	}
	chainID, err := chains.ResolveChainID(network)
	if err != nil {
		return types.Failure(err)
	}
	if chainID != morphoChainID {
		return types.Failure(fmt.Errorf("morpho deposit is only available on %s", chains.Name(morphoChainID)))
	}

	tokens, err := p.okx.ListTokens(ctx, chainID)
	if err != nil {
		return types.Failure(err)
	}

	fromToken := okx.FindTokenBySymbol(tokens, req.FromTokenSymbol)
	if fromToken == nil {
		return types.Failure(fmt.Errorf("token %s on %s: %w", req.FromTokenSymbol, chains.Name(chainID), types.ErrTokenNotSupported))
	}

	amountIn, err := units.Parse(req.Amount, fromToken.Decimals)
	if err != nil {
		return types.Failure(err)
	}

	if err := p.preflightBalance(ctx, chainID, fromToken, amountIn); err != nil {
		return types.Failure(err)
	}

	var (
		bundle       []mee.Instruction
		poolApproval mee.Amount
	)

	if strings.EqualFold(fromToken.Symbol, morphoDepositAsset) {
		// Depositing the pool asset directly: exact bounded approval.
		poolApproval = mee.Literal(amountIn)
	} else {
		wethToken := okx.FindTokenBySymbol(tokens, morphoDepositAsset)
		if wethToken == nil {
			return types.Failure(fmt.Errorf("token %s on %s: %w", morphoDepositAsset, chains.Name(chainID), types.ErrTokenNotSupported))
		}

		swapInstructions, _, err := p.buildSwapInstructions(ctx, chainID, fromToken, wethToken, amountIn)
		if err != nil {
			return types.Failure(err)
		}
		bundle = append(bundle, swapInstructions...)

		// The WETH produced by the swap is only known at execution time, so
		// both the pool allowance and the deposit resolve the live balance.
		poolApproval = mee.RuntimeBalanceOf(WETHBase, p.signer)
	}

	bundle = append(bundle,
		mee.NewApprove(chainID, WETHBase, MorphoRe7WETHPool, poolApproval),
		mee.NewDeposit(chainID, MorphoRe7WETHPool, p.signer, mee.RuntimeBalanceOf(WETHBase, p.signer)),
	)

	trigger := mee.Trigger{
		ChainID:      chainID,
		TokenAddress: common.HexToAddress(fromToken.ContractAddress),
		Amount:       amountIn,
	}
	feeToken := mee.FeeToken{
		Address: common.HexToAddress(fromToken.ContractAddress),
		ChainID: chainID,
	}

	p.log.Info("executing morpho deposit",
		zap.String("from", fromToken.Symbol),
		zap.String("amount", amountIn.String()),
		zap.Bool("swapFirst", !strings.EqualFold(fromToken.Symbol, morphoDepositAsset)))

	return p.executeBundle(ctx, bundle, trigger, feeToken)
}
