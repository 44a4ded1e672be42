// Package swap orchestrates the cross-chain swap pipeline: token resolution,
// aggregator quoting, instruction composition, and settlement through the
// execution service.
package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Nith567/okx-dex-mcp/pkg/chains"
	"github.com/Nith567/okx-dex-mcp/pkg/evm"
	"github.com/Nith567/okx-dex-mcp/pkg/mee"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
	"github.com/Nith567/okx-dex-mcp/pkg/types"
	"github.com/Nith567/okx-dex-mcp/pkg/units"
)

// ReaderDialer opens an on-chain reader for a chain, used for pre-flight
// balance checks. Pipelines without a dialer skip the check.
type ReaderDialer func(chainID int64) (*evm.Reader, error)

// Pipeline composes swap and deposit instruction bundles and settles them.
// Every invocation builds its own token list, quote, and instruction set;
// nothing is shared across runs, so concurrent invocations need no locking.
type Pipeline struct {
	okx        *okx.Client
	mee        *mee.Client
	signer     common.Address
	slippage   string
	log        *zap.Logger
	dialReader ReaderDialer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSlippage overrides the default slippage tolerance.
func WithSlippage(slippage string) Option {
	return func(p *Pipeline) { p.slippage = slippage }
}

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log.Named("pipeline") }
}

// WithBalanceChecks enables pre-flight balance verification through the
// given dialer.
func WithBalanceChecks(dialer ReaderDialer) Option {
	return func(p *Pipeline) { p.dialReader = dialer }
}

// New creates a pipeline executing on behalf of signer.
func New(okxClient *okx.Client, meeClient *mee.Client, signer common.Address, opts ...Option) *Pipeline {
	p := &Pipeline{
		okx:      okxClient,
		mee:      meeClient,
		signer:   signer,
		slippage: okx.DefaultSlippage,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExecuteTokenSwap runs the full swap pipeline and blocks until settlement.
// It never returns an error: failures come back as SwapResult{Success:
// false, Error: ...} so a deposit flow can chain it safely.
func (p *Pipeline) ExecuteTokenSwap(ctx context.Context, req types.SwapRequest) *types.SwapResult {
	chainID, err := chains.ResolveChainID(req.Network)
	if err != nil {
		return types.Failure(err)
	}

	tokens, err := p.okx.ListTokens(ctx, chainID)
	if err != nil {
		return types.Failure(err)
	}

	fromToken := okx.FindTokenBySymbol(tokens, req.FromTokenSymbol)
	if fromToken == nil {
		return types.Failure(fmt.Errorf("token %s on %s: %w", req.FromTokenSymbol, chains.Name(chainID), types.ErrTokenNotSupported))
	}
	toToken := okx.FindTokenBySymbol(tokens, req.ToTokenSymbol)
	if toToken == nil {
		return types.Failure(fmt.Errorf("token %s on %s: %w", req.ToTokenSymbol, chains.Name(chainID), types.ErrTokenNotSupported))
	}

	amountIn, err := units.Parse(req.Amount, fromToken.Decimals)
	if err != nil {
		return types.Failure(err)
	}

	if err := p.preflightBalance(ctx, chainID, fromToken, amountIn); err != nil {
		return types.Failure(err)
	}

	instructions, minReceive, err := p.buildSwapInstructions(ctx, chainID, fromToken, toToken, amountIn)
	if err != nil {
		return types.Failure(err)
	}

	// Move the output to the recipient unless the signer already is the
	// recipient. The amount is the conservative minimum-receive bound, never
	// the quote's point estimate.
	if req.Recipient != "" {
		recipient := common.HexToAddress(req.Recipient)
		if recipient != p.signer {
			instructions = append(instructions, mee.NewTransfer(
				chainID,
				common.HexToAddress(toToken.ContractAddress),
				recipient,
				mee.Literal(minReceive),
			))
		}
	}

	trigger := mee.Trigger{
		ChainID:      chainID,
		TokenAddress: common.HexToAddress(fromToken.ContractAddress),
		Amount:       amountIn,
	}
	feeToken := mee.FeeToken{
		Address: common.HexToAddress(fromToken.ContractAddress),
		ChainID: chainID,
	}

	p.log.Info("executing swap",
		zap.String("from", fromToken.Symbol),
		zap.String("to", toToken.Symbol),
		zap.String("amount", amountIn.String()),
		zap.Int64("chainId", chainID))

	return p.executeBundle(ctx, instructions, trigger, feeToken)
}

// buildSwapInstructions asks the aggregator for the approval and swap
// payloads and composes them into ordered instructions: the bounded router
// approval first, then the decoded swap call.
func (p *Pipeline) buildSwapInstructions(ctx context.Context, chainID int64, fromToken, toToken *okx.Token, amountIn *big.Int) ([]mee.Instruction, *big.Int, error) {
	approval, err := p.okx.ApprovalTransaction(ctx, chainID, fromToken.ContractAddress, amountIn)
	if err != nil {
		return nil, nil, err
	}

	swapTx, err := p.okx.SwapTransaction(ctx, okx.SwapTxParams{
		ChainID:           chainID,
		Amount:            amountIn,
		FromTokenAddress:  fromToken.ContractAddress,
		ToTokenAddress:    toToken.ContractAddress,
		UserWalletAddress: p.signer.Hex(),
		Slippage:          p.slippage,
	})
	if err != nil {
		return nil, nil, err
	}

	instructions := []mee.Instruction{
		mee.NewApprove(chainID, common.HexToAddress(fromToken.ContractAddress), approval.DexContractAddress, mee.Literal(approval.Amount)),
		mee.NewSwap(chainID, swapTx.To, swapTx.FunctionName, swapTx.Args, swapTx.CallData),
	}
	return instructions, swapTx.MinReceiveAmount, nil
}

// preflightBalance verifies the signer holds the input amount before any
// instruction is composed. Skipped when no reader dialer is configured.
func (p *Pipeline) preflightBalance(ctx context.Context, chainID int64, token *okx.Token, amount *big.Int) error {
	if p.dialReader == nil {
		return nil
	}

	reader, err := p.dialReader(chainID)
	if err != nil {
		return fmt.Errorf("preflight balance check: %w", err)
	}
	defer reader.Close()

	balance, err := reader.TokenBalance(ctx, common.HexToAddress(token.ContractAddress), p.signer)
	if err != nil {
		return fmt.Errorf("preflight balance check: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient %s balance: have %s, need %s",
			token.Symbol, units.Format(balance, token.Decimals), units.Format(amount, token.Decimals))
	}
	return nil
}

// executeBundle runs the shared trigger/execution cycle: fusion quote,
// submission, settlement receipt.
func (p *Pipeline) executeBundle(ctx context.Context, instructions []mee.Instruction, trigger mee.Trigger, feeToken mee.FeeToken) *types.SwapResult {
	quote, err := p.mee.GetFusionQuote(ctx, mee.FusionQuoteRequest{
		Instructions: instructions,
		Trigger:      trigger,
		FeeToken:     feeToken,
	})
	if err != nil {
		return types.Failure(err)
	}

	hash, err := p.mee.Execute(ctx, quote)
	if err != nil {
		return types.Failure(err)
	}

	receipt, err := p.mee.WaitForReceipt(ctx, hash)
	if err != nil {
		return &types.SwapResult{
			Success:  false,
			Hash:     hash,
			ScanLink: mee.ScanLink(hash),
			Error:    err.Error(),
		}
	}

	result := &types.SwapResult{
		Success:  receipt.Successful(),
		Hash:     hash,
		ScanLink: mee.ScanLink(hash),
		Receipt:  receipt.Raw,
	}
	if !receipt.Successful() {
		result.Error = fmt.Sprintf("bundle settled with status %s", receipt.Status)
	}
	return result
}
