// Package mee is a client for the meta-transaction execution service. It
// composes ordered instruction bundles, gates them behind a funding trigger,
// and settles them through the service's fusion-quote cycle.
package mee

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AmountMode distinguishes amounts known at composition time from amounts
// the execution service resolves at execution time.
type AmountMode int

const (
	amountLiteral AmountMode = iota
	amountRuntimeBalance
)

// Amount is an instruction argument that is either a literal smallest-unit
// value or a balance the execution service reads on-chain when the
// instruction runs. The runtime form preserves "funds may arrive between
// quote and settlement" semantics: the value is never computed ahead of time.
type Amount struct {
	mode   AmountMode
	value  *big.Int
	token  common.Address
	holder common.Address
}

// Literal wraps a known smallest-unit value.
func Literal(v *big.Int) Amount {
	return Amount{mode: amountLiteral, value: v}
}

// RuntimeBalanceOf defers to the holder's token balance at execution time.
func RuntimeBalanceOf(token, holder common.Address) Amount {
	return Amount{mode: amountRuntimeBalance, token: token, holder: holder}
}

// IsRuntime reports whether the amount is resolved at execution time.
func (a Amount) IsRuntime() bool { return a.mode == amountRuntimeBalance }

// Value returns the literal value, nil for runtime amounts.
func (a Amount) Value() *big.Int { return a.value }

// MarshalJSON renders literals as decimal strings and runtime amounts as a
// tagged object the execution service resolves.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.mode == amountRuntimeBalance {
		return json.Marshal(map[string]string{
			"type":   "runtimeBalanceOf",
			"token":  a.token.Hex(),
			"holder": a.holder.Hex(),
		})
	}
	if a.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(a.value.String())
}

// Kind tags the closed set of instruction variants.
type Kind string

const (
	KindApprove  Kind = "approve"
	KindSwap     Kind = "swap"
	KindTransfer Kind = "transfer"
	KindDeposit  Kind = "deposit"
)

// ApproveCall grants a spender an exact allowance. The instruction target is
// the token contract. Approvals are bounded to the amount actually spent,
// never unlimited.
type ApproveCall struct {
	Spender common.Address
	Amount  Amount
}

// SwapCall is the aggregator-composed router call, decoded so arguments can
// be recomposed with runtime-resolved values.
type SwapCall struct {
	FunctionName string
	Args         []any
	CallData     []byte
}

// TransferCall moves tokens to a recipient. The instruction target is the
// token contract.
type TransferCall struct {
	Recipient common.Address
	Amount    Amount
}

// DepositCall supplies tokens to a yield pool. The instruction target is the
// pool contract.
type DepositCall struct {
	Receiver common.Address
	Amount   Amount
}

// Instruction is one atomic on-chain call inside a bundle. Exactly one of
// the call records matching Kind is set. Bundle order is a correctness
// invariant: an approval must precede the call that spends its allowance.
type Instruction struct {
	Kind    Kind
	ChainID int64
	To      common.Address

	Approve  *ApproveCall
	Swap     *SwapCall
	Transfer *TransferCall
	Deposit  *DepositCall
}

// NewApprove builds a bounded token approval instruction.
func NewApprove(chainID int64, token, spender common.Address, amount Amount) Instruction {
	return Instruction{
		Kind:    KindApprove,
		ChainID: chainID,
		To:      token,
		Approve: &ApproveCall{Spender: spender, Amount: amount},
	}
}

// NewSwap builds the router swap instruction from decoded aggregator
// calldata.
func NewSwap(chainID int64, router common.Address, functionName string, args []any, callData []byte) Instruction {
	return Instruction{
		Kind:    KindSwap,
		ChainID: chainID,
		To:      router,
		Swap:    &SwapCall{FunctionName: functionName, Args: args, CallData: callData},
	}
}

// NewTransfer builds a token transfer instruction.
func NewTransfer(chainID int64, token, recipient common.Address, amount Amount) Instruction {
	return Instruction{
		Kind:     KindTransfer,
		ChainID:  chainID,
		To:       token,
		Transfer: &TransferCall{Recipient: recipient, Amount: amount},
	}
}

// NewDeposit builds a pool deposit instruction.
func NewDeposit(chainID int64, pool, receiver common.Address, amount Amount) Instruction {
	return Instruction{
		Kind:    KindDeposit,
		ChainID: chainID,
		To:      pool,
		Deposit: &DepositCall{Receiver: receiver, Amount: amount},
	}
}

// MarshalJSON renders the instruction in the wire shape the execution
// service consumes. Every argument passes through the boundary serializer.
func (in Instruction) MarshalJSON() ([]byte, error) {
	var (
		functionName string
		rawArgs      []any
		callData     []byte
	)

	switch in.Kind {
	case KindApprove:
		functionName = "approve"
		rawArgs = []any{in.Approve.Spender, in.Approve.Amount}
	case KindSwap:
		functionName = in.Swap.FunctionName
		rawArgs = in.Swap.Args
		callData = in.Swap.CallData
	case KindTransfer:
		functionName = "transfer"
		rawArgs = []any{in.Transfer.Recipient, in.Transfer.Amount}
	case KindDeposit:
		functionName = "deposit"
		rawArgs = []any{in.Deposit.Amount, in.Deposit.Receiver}
	default:
		return nil, fmt.Errorf("unknown instruction kind %q", in.Kind)
	}

	args := make([]json.RawMessage, len(rawArgs))
	for i, arg := range rawArgs {
		raw, err := marshalValue(arg)
		if err != nil {
			return nil, fmt.Errorf("instruction %s arg %d: %w", in.Kind, i, err)
		}
		args[i] = raw
	}

	wire := map[string]any{
		"kind":         string(in.Kind),
		"chainId":      in.ChainID,
		"to":           in.To.Hex(),
		"functionName": functionName,
		"args":         args,
	}
	if callData != nil {
		wire["callData"] = hexutil.Encode(callData)
	}
	return json.Marshal(wire)
}

// Trigger is the funding precondition gating the bundle: the execution
// service releases nothing until an inbound transfer of exactly this
// token/amount lands on this chain.
type Trigger struct {
	ChainID      int64
	TokenAddress common.Address
	Amount       *big.Int
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	amount := ""
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return json.Marshal(map[string]any{
		"chainId":      t.ChainID,
		"tokenAddress": t.TokenAddress.Hex(),
		"amount":       amount,
	})
}

// FeeToken designates the token paying execution costs in lieu of native
// gas, deducted from the swap input on its chain.
type FeeToken struct {
	Address common.Address
	ChainID int64
}

func (f FeeToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"address": f.Address.Hex(),
		"chainId": f.ChainID,
	})
}

// ValidateBundle checks the composition invariants before anything reaches
// the execution service. A violation is a configuration error, not a retry
// case.
func ValidateBundle(instructions []Instruction, trigger Trigger) error {
	if len(instructions) == 0 {
		return fmt.Errorf("instruction bundle is empty")
	}
	if trigger.Amount == nil || trigger.Amount.Sign() <= 0 {
		return fmt.Errorf("trigger amount must be positive")
	}

	// The trigger must fund the first instruction on its chain.
	funded := false
	for _, in := range instructions {
		if in.ChainID != trigger.ChainID {
			continue
		}
		switch in.Kind {
		case KindApprove, KindTransfer:
			if in.To != trigger.TokenAddress {
				return fmt.Errorf("trigger token %s does not match funding token %s on chain %d",
					trigger.TokenAddress.Hex(), in.To.Hex(), trigger.ChainID)
			}
			funded = true
		default:
			return fmt.Errorf("first instruction on trigger chain %d must be funded by the trigger token, got %s", trigger.ChainID, in.Kind)
		}
		break
	}
	if !funded {
		return fmt.Errorf("trigger chain %d is not present in the instruction bundle", trigger.ChainID)
	}

	// An allowance must exist before anything spends it.
	type grant struct {
		chainID int64
		spender common.Address
	}
	approved := make(map[grant]bool)
	for i, in := range instructions {
		switch in.Kind {
		case KindApprove:
			approved[grant{in.ChainID, in.Approve.Spender}] = true
		case KindSwap:
			if !approved[grant{in.ChainID, in.To}] {
				return fmt.Errorf("instruction %d: swap via %s has no preceding approval", i, in.To.Hex())
			}
		case KindDeposit:
			if !approved[grant{in.ChainID, in.To}] {
				return fmt.Errorf("instruction %d: deposit into %s has no preceding approval", i, in.To.Hex())
			}
		}
	}

	return nil
}
