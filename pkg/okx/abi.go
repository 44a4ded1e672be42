package okx

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// erc20ABI covers the calls the pipeline decodes or packs against token
// contracts.
const erc20ABI = `[
  {"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"constant":false,"inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// dexRouterABI is the subset of the aggregator router interface needed to
// decode the swap calldata the aggregator returns. Selectors outside this set
// are rejected rather than forwarded opaquely.
const dexRouterABI = `[
  {"inputs":[
    {"internalType":"uint256","name":"orderId","type":"uint256"},
    {"components":[
      {"internalType":"uint256","name":"fromToken","type":"uint256"},
      {"internalType":"address","name":"toToken","type":"address"},
      {"internalType":"uint256","name":"fromTokenAmount","type":"uint256"},
      {"internalType":"uint256","name":"minReturnAmount","type":"uint256"},
      {"internalType":"uint256","name":"deadLine","type":"uint256"}
    ],"internalType":"struct PMMLib.BaseRequest","name":"baseRequest","type":"tuple"},
    {"internalType":"uint256[]","name":"batchesAmount","type":"uint256[]"},
    {"components":[
      {"internalType":"address[]","name":"mixAdapters","type":"address[]"},
      {"internalType":"address[]","name":"assetTo","type":"address[]"},
      {"internalType":"uint256[]","name":"rawData","type":"uint256[]"},
      {"internalType":"bytes[]","name":"extraData","type":"bytes[]"},
      {"internalType":"uint256","name":"fromToken","type":"uint256"}
    ],"internalType":"struct DexRouter.RouterPath[][]","name":"batches","type":"tuple[][]"},
    {"components":[
      {"internalType":"uint256","name":"pathIndex","type":"uint256"},
      {"internalType":"address","name":"payer","type":"address"},
      {"internalType":"address","name":"fromToken","type":"address"},
      {"internalType":"address","name":"toToken","type":"address"},
      {"internalType":"uint256","name":"fromTokenAmountMax","type":"uint256"},
      {"internalType":"uint256","name":"toTokenAmountMax","type":"uint256"},
      {"internalType":"uint256","name":"salt","type":"uint256"},
      {"internalType":"uint256","name":"deadLine","type":"uint256"},
      {"internalType":"bool","name":"isPushOrder","type":"bool"},
      {"internalType":"bytes","name":"extension","type":"bytes"}
    ],"internalType":"struct PMMLib.PMMSwapRequest[]","name":"extraData","type":"tuple[]"}
  ],"name":"smartSwapByOrderId","outputs":[{"internalType":"uint256","name":"returnAmount","type":"uint256"}],"stateMutability":"payable","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"recipient","type":"uint256"},
    {"internalType":"uint256","name":"amount","type":"uint256"},
    {"internalType":"uint256","name":"minReturn","type":"uint256"},
    {"internalType":"uint256[]","name":"pools","type":"uint256[]"}
  ],"name":"uniswapV3SwapTo","outputs":[{"internalType":"uint256","name":"returnAmount","type":"uint256"}],"stateMutability":"payable","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"srcToken","type":"uint256"},
    {"internalType":"uint256","name":"amount","type":"uint256"},
    {"internalType":"uint256","name":"minReturn","type":"uint256"},
    {"internalType":"bytes32[]","name":"pools","type":"bytes32[]"}
  ],"name":"unxswapByOrderId","outputs":[{"internalType":"uint256","name":"returnAmount","type":"uint256"}],"stateMutability":"payable","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"orderId","type":"uint256"},
    {"internalType":"uint256","name":"rawdata","type":"uint256"}
  ],"name":"swapWrap","outputs":[],"stateMutability":"payable","type":"function"}
]`

var (
	parsedERC20ABI     abi.ABI
	parsedDexRouterABI abi.ABI
)

func init() {
	var err error
	parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic("okx: bad erc20 ABI: " + err.Error())
	}
	parsedDexRouterABI, err = abi.JSON(strings.NewReader(dexRouterABI))
	if err != nil {
		panic("okx: bad dex router ABI: " + err.Error())
	}
}

// RouterABI exposes the parsed router interface for callers that compose
// instructions from decoded swap calldata.
func RouterABI() abi.ABI {
	return parsedDexRouterABI
}

// ERC20ABI exposes the parsed token interface.
func ERC20ABI() abi.ABI {
	return parsedERC20ABI
}
