// Package evm provides read-only token and account queries against EVM
// chains, used for pre-flight checks before a bundle is composed.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ReadABI = `[
  {"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var parsedReadABI abi.ABI

func init() {
	var err error
	parsedReadABI, err = abi.JSON(strings.NewReader(erc20ReadABI))
	if err != nil {
		panic("evm: bad erc20 ABI: " + err.Error())
	}
}

// Reader performs read-only queries against one chain's RPC endpoint.
type Reader struct {
	client *ethclient.Client
}

// Dial connects to an RPC endpoint.
func Dial(rpcURL string) (*Reader, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect to RPC endpoint %s: %w", rpcURL, err)
	}
	return &Reader{client: client}, nil
}

// Close releases the underlying connection.
func (r *Reader) Close() {
	r.client.Close()
}

func (r *Reader) call(ctx context.Context, contract common.Address, method string, args ...any) ([]any, error) {
	data, err := parsedReadABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}

	values, err := parsedReadABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s result: %w", method, err)
	}
	return values, nil
}

// TokenBalance returns the holder's balance of an ERC-20 token, in the
// token's smallest unit.
func (r *Reader) TokenBalance(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	values, err := r.call(ctx, token, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf on %s: unexpected result type", token.Hex())
	}
	return balance, nil
}

// Allowance returns how much of owner's token the spender may move.
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	values, err := r.call(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance on %s: unexpected result type", token.Hex())
	}
	return allowance, nil
}

// TokenSymbol returns the token's on-chain symbol.
func (r *Reader) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	values, err := r.call(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol on %s: unexpected result type", token.Hex())
	}
	return symbol, nil
}

// TokenDecimals returns the token's decimal count.
func (r *Reader) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	values, err := r.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals on %s: unexpected result type", token.Hex())
	}
	return decimals, nil
}

// NativeBalance returns the account's native currency balance in wei.
func (r *Reader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := r.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("get balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}
