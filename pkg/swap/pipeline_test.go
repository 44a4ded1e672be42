package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nith567/okx-dex-mcp/pkg/mee"
	"github.com/Nith567/okx-dex-mcp/pkg/okx"
	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

var (
	testSigner    = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	testRouter    = common.HexToAddress("0x6b2C0c7be2048Daa9b5527982C29f48062B34D58")
	testUSDC      = "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
	testWETH      = "0x4200000000000000000000000000000000000006"
	testRecipient = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

// wireInstruction is the decoded shape of one instruction as the execution
// service sees it.
type wireInstruction struct {
	Kind         string            `json:"kind"`
	ChainID      int64             `json:"chainId"`
	To           string            `json:"to"`
	FunctionName string            `json:"functionName"`
	Args         []json.RawMessage `json:"args"`
}

type fakeExecution struct {
	t           *testing.T
	status      string
	quoteHits   atomic.Int32
	executeHits atomic.Int32

	lastBundle  []wireInstruction
	lastTrigger map[string]any
	lastFee     map[string]any
}

func (f *fakeExecution) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/quote", func(w http.ResponseWriter, r *http.Request) {
		f.quoteHits.Add(1)
		var req struct {
			Instructions []wireInstruction `json:"instructions"`
			Trigger      map[string]any    `json:"trigger"`
			FeeToken     map[string]any    `json:"feeToken"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.lastBundle = req.Instructions
		f.lastTrigger = req.Trigger
		f.lastFee = req.FeeToken
		w.Write([]byte(`{"id":"quote-1","paymentInfo":{}}`))
	})
	mux.HandleFunc("/v3/execute", func(w http.ResponseWriter, r *http.Request) {
		f.executeHits.Add(1)
		w.Write([]byte(`{"hash":"0xsupertx"}`))
	})
	mux.HandleFunc("/v3/explorer/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"hash":"0xsupertx","transactionStatus":"%s","explorerLinks":["https://basescan.org/tx/0x1"]}`, f.status)
	})
	return mux
}

// newFakeAggregator serves the aggregator endpoints with canned USDC/WETH
// data for Base.
func newFakeAggregator(t *testing.T) *httptest.Server {
	t.Helper()

	approveCalldata, err := okx.ERC20ABI().Pack("approve", testRouter, big.NewInt(100_000_000))
	require.NoError(t, err)
	swapCalldata, err := okx.RouterABI().Pack("uniswapV3SwapTo",
		big.NewInt(1), big.NewInt(100_000_000), big.NewInt(98_000_000_000_000_000), []*big.Int{big.NewInt(7)})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v5/dex/aggregator/all-tokens", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[
			{"decimals":"6","tokenContractAddress":"%s","tokenLogoUrl":"","tokenName":"USD Coin","tokenSymbol":"USDC"},
			{"decimals":"18","tokenContractAddress":"%s","tokenLogoUrl":"","tokenName":"Wrapped Ether","tokenSymbol":"WETH"}
		]}`, testUSDC, testWETH)
	})
	mux.HandleFunc("/api/v5/dex/aggregator/approve-transaction", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[
			{"data":"%s","dexContractAddress":"%s","gasLimit":"50000","gasPrice":"1"}
		]}`, hexutil.Encode(approveCalldata), testRouter.Hex())
	})
	mux.HandleFunc("/api/v5/dex/aggregator/swap", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[
			{"tx":{"data":"%s","to":"%s","minReceiveAmount":"98000000000000000"},
			 "routerResult":{"toTokenAmount":"100000000000000000"}}
		]}`, hexutil.Encode(swapCalldata), testRouter.Hex())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPipeline(t *testing.T, exec *fakeExecution, opts ...Option) *Pipeline {
	t.Helper()

	aggregator := newFakeAggregator(t)
	okxClient, err := okx.NewClient(okx.Credentials{APIKey: "k", SecretKey: "s", Passphrase: "p"},
		okx.WithBaseURL(aggregator.URL))
	require.NoError(t, err)

	execSrv := httptest.NewServer(exec.handler())
	t.Cleanup(execSrv.Close)
	meeClient := mee.NewClient(mee.WithBaseURL(execSrv.URL))

	return New(okxClient, meeClient, testSigner, opts...)
}

func TestExecuteTokenSwap(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "base",
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "0xsupertx", result.Hash)
	assert.Equal(t, "https://meescan.biconomy.io/details/0xsupertx", result.ScanLink)
	assert.NotEmpty(t, result.Receipt)

	// bounded approval precedes the swap
	require.Len(t, exec.lastBundle, 2)
	assert.Equal(t, "approve", exec.lastBundle[0].Kind)
	assert.Equal(t, common.HexToAddress(testUSDC).Hex(), exec.lastBundle[0].To)
	assert.JSONEq(t, `"100000000"`, string(exec.lastBundle[0].Args[1]))
	assert.Equal(t, "swap", exec.lastBundle[1].Kind)
	assert.Equal(t, "uniswapV3SwapTo", exec.lastBundle[1].FunctionName)

	// trigger and fee token ride on the input token
	assert.Equal(t, "100000000", exec.lastTrigger["amount"])
	assert.Equal(t, common.HexToAddress(testUSDC).Hex(), exec.lastTrigger["tokenAddress"])
	assert.Equal(t, common.HexToAddress(testUSDC).Hex(), exec.lastFee["address"])
}

func TestExecuteTokenSwapDefaultsToBase(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
	})
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, int64(8453), exec.lastBundle[0].ChainID)
}

func TestExecuteTokenSwapUnknownTokenFailsBeforeExecution(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "base",
		Amount:          "100",
		FromTokenSymbol: "DOGE",
		ToTokenSymbol:   "WETH",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "DOGE")
	assert.Empty(t, result.Hash)
	assert.Equal(t, int32(0), exec.quoteHits.Load(), "nothing may reach the execution service")
}

func TestExecuteTokenSwapBadNetwork(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "dogechain",
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unsupported network")
}

func TestExecuteTokenSwapAppendsRecipientTransfer(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "base",
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
		Recipient:       testRecipient.Hex(),
	})
	require.True(t, result.Success, "error: %s", result.Error)

	require.Len(t, exec.lastBundle, 3)
	transfer := exec.lastBundle[2]
	assert.Equal(t, "transfer", transfer.Kind)
	assert.Equal(t, common.HexToAddress(testWETH).Hex(), transfer.To)
	assert.JSONEq(t, `"`+testRecipient.Hex()+`"`, string(transfer.Args[0]))
	// the transferred amount is the minimum-receive bound
	assert.JSONEq(t, `"98000000000000000"`, string(transfer.Args[1]))
}

func TestExecuteTokenSwapSignerRecipientAddsNoTransfer(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "base",
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
		Recipient:       testSigner.Hex(),
	})
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Len(t, exec.lastBundle, 2)
}

func TestExecuteTokenSwapAggregatorFailure(t *testing.T) {
	// aggregator answers the token list but rejects the approval composition
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v5/dex/aggregator/all-tokens", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[
			{"decimals":"6","tokenContractAddress":"%s","tokenLogoUrl":"","tokenName":"USD Coin","tokenSymbol":"USDC"},
			{"decimals":"18","tokenContractAddress":"%s","tokenLogoUrl":"","tokenName":"Wrapped Ether","tokenSymbol":"WETH"}
		]}`, testUSDC, testWETH)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"50014","msg":"Parameter amount error","data":[]}`))
	})
	aggregator := httptest.NewServer(mux)
	t.Cleanup(aggregator.Close)

	okxClient, err := okx.NewClient(okx.Credentials{APIKey: "k", SecretKey: "s", Passphrase: "p"},
		okx.WithBaseURL(aggregator.URL))
	require.NoError(t, err)

	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	execSrv := httptest.NewServer(exec.handler())
	t.Cleanup(execSrv.Close)

	p := New(okxClient, mee.NewClient(mee.WithBaseURL(execSrv.URL)), testSigner)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "base",
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "50014")
	assert.Equal(t, int32(0), exec.quoteHits.Load(), "no bundle may be composed after an aggregator failure")
}

func TestExecuteTokenSwapSettlementFailure(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_FAIL"}
	p := newTestPipeline(t, exec)

	result := p.ExecuteTokenSwap(context.Background(), types.SwapRequest{
		Network:         "base",
		Amount:          "100",
		FromTokenSymbol: "USDC",
		ToTokenSymbol:   "WETH",
	})

	assert.False(t, result.Success)
	assert.Equal(t, "0xsupertx", result.Hash)
	assert.Contains(t, result.Error, "MINED_FAIL")
	assert.NotEmpty(t, result.Receipt, "a settled failure still carries its receipt")
}

func TestSwapAndDepositMorphoDirectWETH(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.SwapAndDepositMorpho(context.Background(), types.DepositRequest{
		Amount:          "0.5",
		FromTokenSymbol: "WETH",
	})
	require.True(t, result.Success, "error: %s", result.Error)

	// no swap: bounded pool approval, then the deposit
	require.Len(t, exec.lastBundle, 2)
	approve, deposit := exec.lastBundle[0], exec.lastBundle[1]

	assert.Equal(t, "approve", approve.Kind)
	assert.Equal(t, WETHBase.Hex(), approve.To)
	assert.JSONEq(t, `"`+MorphoRe7WETHPool.Hex()+`"`, string(approve.Args[0]))
	assert.JSONEq(t, `"500000000000000000"`, string(approve.Args[1]))

	assert.Equal(t, "deposit", deposit.Kind)
	assert.Equal(t, MorphoRe7WETHPool.Hex(), deposit.To)
	assert.Contains(t, string(deposit.Args[0]), "runtimeBalanceOf")
	assert.JSONEq(t, `"`+testSigner.Hex()+`"`, string(deposit.Args[1]))

	assert.Equal(t, "500000000000000000", exec.lastTrigger["amount"])
	assert.Equal(t, WETHBase.Hex(), exec.lastTrigger["tokenAddress"])
}

func TestSwapAndDepositMorphoSwapsFirst(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.SwapAndDepositMorpho(context.Background(), types.DepositRequest{
		Amount:          "100",
		FromTokenSymbol: "USDC",
	})
	require.True(t, result.Success, "error: %s", result.Error)

	// one bundle, one settlement: approve router, swap, approve pool, deposit
	require.Len(t, exec.lastBundle, 4)
	assert.Equal(t, "approve", exec.lastBundle[0].Kind)
	assert.Equal(t, "swap", exec.lastBundle[1].Kind)
	assert.Equal(t, "approve", exec.lastBundle[2].Kind)
	assert.Equal(t, "deposit", exec.lastBundle[3].Kind)

	// the pool allowance is resolved at execution time, not quoted
	assert.Contains(t, string(exec.lastBundle[2].Args[1]), "runtimeBalanceOf")

	// one trigger, on the input token
	assert.Equal(t, int32(1), exec.quoteHits.Load())
	assert.Equal(t, int32(1), exec.executeHits.Load())
	assert.Equal(t, common.HexToAddress(testUSDC).Hex(), exec.lastTrigger["tokenAddress"])
}

func TestSwapAndDepositMorphoRejectsOtherNetworks(t *testing.T) {
	exec := &fakeExecution{t: t, status: "MINED_SUCCESS"}
	p := newTestPipeline(t, exec)

	result := p.SwapAndDepositMorpho(context.Background(), types.DepositRequest{
		Network:         "optimism",
		Amount:          "100",
		FromTokenSymbol: "USDC",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "only available on Base")
	assert.Equal(t, int32(0), exec.quoteHits.Load())
}
