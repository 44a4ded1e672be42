package okx

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultSlippage is the slippage tolerance passed to the aggregator when a
// caller does not choose one: 5%.
const DefaultSlippage = "0.05"

// ApprovalTx is the aggregator-composed token approval, decoded so the
// spender and exact amount can be rebuilt into an instruction.
type ApprovalTx struct {
	DexContractAddress common.Address
	Amount             *big.Int
	Data               []byte
}

type approvalEntry struct {
	Data               string `json:"data"`
	DexContractAddress string `json:"dexContractAddress"`
	GasLimit           string `json:"gasLimit"`
	GasPrice           string `json:"gasPrice"`
}

// ApprovalTransaction asks the aggregator for the approval payload granting
// its router exactly approveAmount of the token.
func (c *Client) ApprovalTransaction(ctx context.Context, chainID int64, tokenContractAddress string, approveAmount *big.Int) (*ApprovalTx, error) {
	query := url.Values{}
	query.Set("chainIndex", strconv.FormatInt(chainID, 10))
	query.Set("tokenContractAddress", tokenContractAddress)
	query.Set("approveAmount", approveAmount.String())

	var entries []approvalEntry
	if err := c.get(ctx, "/api/v5/dex/aggregator/approve-transaction", query, &entries); err != nil {
		return nil, fmt.Errorf("approval transaction for %s on chain %d: %w", tokenContractAddress, chainID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("approval transaction for %s on chain %d: empty response", tokenContractAddress, chainID)
	}

	data, err := hexutil.Decode(entries[0].Data)
	if err != nil {
		return nil, fmt.Errorf("approval calldata: %w", err)
	}

	// Decode approve(spender, amount) to recover the exact bound amount.
	method, err := parsedERC20ABI.MethodById(data[:4])
	if err != nil || method.Name != "approve" {
		return nil, fmt.Errorf("approval calldata: unexpected selector %s", hexutil.Encode(data[:4]))
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("decode approval calldata: %w", err)
	}
	amount, ok := args[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode approval calldata: amount is not uint256")
	}

	return &ApprovalTx{
		DexContractAddress: common.HexToAddress(entries[0].DexContractAddress),
		Amount:             amount,
		Data:               data,
	}, nil
}

// SwapTx is the aggregator-composed swap call, decoded against the router
// interface so its arguments can be recomposed rather than forwarded as an
// opaque blob.
type SwapTx struct {
	To               common.Address
	FunctionName     string
	Args             []any
	CallData         []byte
	ToTokenAmount    *big.Int
	MinReceiveAmount *big.Int
}

// SwapTxParams identifies the swap the aggregator should compose. Amount is
// in the input token's smallest unit.
type SwapTxParams struct {
	ChainID           int64
	Amount            *big.Int
	FromTokenAddress  string
	ToTokenAddress    string
	UserWalletAddress string
	Slippage          string
}

type swapEntry struct {
	Tx struct {
		Data             string `json:"data"`
		To               string `json:"to"`
		MinReceiveAmount string `json:"minReceiveAmount"`
	} `json:"tx"`
	RouterResult struct {
		ToTokenAmount string `json:"toTokenAmount"`
	} `json:"routerResult"`
}

// SwapTransaction asks the aggregator to compose the swap call for the pair
// and decodes the returned calldata.
func (c *Client) SwapTransaction(ctx context.Context, params SwapTxParams) (*SwapTx, error) {
	slippage := params.Slippage
	if slippage == "" {
		slippage = DefaultSlippage
	}

	query := url.Values{}
	query.Set("chainIndex", strconv.FormatInt(params.ChainID, 10))
	query.Set("amount", params.Amount.String())
	query.Set("fromTokenAddress", params.FromTokenAddress)
	query.Set("toTokenAddress", params.ToTokenAddress)
	query.Set("slippage", slippage)
	query.Set("userWalletAddress", params.UserWalletAddress)

	var entries []swapEntry
	if err := c.get(ctx, "/api/v5/dex/aggregator/swap", query, &entries); err != nil {
		return nil, fmt.Errorf("swap transaction on chain %d: %w", params.ChainID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("swap transaction on chain %d: empty response", params.ChainID)
	}
	entry := entries[0]

	data, err := hexutil.Decode(entry.Tx.Data)
	if err != nil {
		return nil, fmt.Errorf("swap calldata: %w", err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("swap calldata: too short (%d bytes)", len(data))
	}

	method, err := parsedDexRouterABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("swap calldata: unrecognized router selector %s", hexutil.Encode(data[:4]))
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("decode %s calldata: %w", method.Name, err)
	}

	toTokenAmount, ok := new(big.Int).SetString(entry.RouterResult.ToTokenAmount, 10)
	if !ok {
		return nil, fmt.Errorf("swap transaction: bad toTokenAmount %q", entry.RouterResult.ToTokenAmount)
	}
	minReceive, ok := new(big.Int).SetString(entry.Tx.MinReceiveAmount, 10)
	if !ok {
		return nil, fmt.Errorf("swap transaction: bad minReceiveAmount %q", entry.Tx.MinReceiveAmount)
	}

	return &SwapTx{
		To:               common.HexToAddress(entry.Tx.To),
		FunctionName:     method.Name,
		Args:             args,
		CallData:         data,
		ToTokenAmount:    toTokenAmount,
		MinReceiveAmount: minReceive,
	}, nil
}
