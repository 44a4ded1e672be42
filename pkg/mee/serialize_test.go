package mee

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

func TestMarshalValue(t *testing.T) {
	wide, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"big int becomes decimal string", wide, `"340282366920938463463374607431768211455"`},
		{"address is checksummed hex", common.HexToAddress("0x4200000000000000000000000000000000000006"), `"0x4200000000000000000000000000000000000006"`},
		{"bytes become hex", []byte{0xca, 0xfe}, `"0xcafe"`},
		{"bool passes through", true, `true`},
		{"string passes through", "uniswapV3SwapTo", `"uniswapV3SwapTo"`},
		{"nil big int is null", (*big.Int)(nil), `null`},
		{"slice recurses", []*big.Int{big.NewInt(1), wide}, `["1","340282366920938463463374607431768211455"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := marshalValue(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestMarshalValueDecodedTuple(t *testing.T) {
	// shape of an anonymous struct produced by abi Unpack
	tuple := struct {
		FromToken       *big.Int
		ToToken         common.Address
		FromTokenAmount *big.Int
	}{
		FromToken:       big.NewInt(7),
		ToToken:         common.HexToAddress("0x4200000000000000000000000000000000000006"),
		FromTokenAmount: big.NewInt(100),
	}

	raw, err := marshalValue(tuple)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"fromToken":       "7",
		"toToken":         "0x4200000000000000000000000000000000000006",
		"fromTokenAmount": "100"
	}`, string(raw))
}

func TestMarshalValueRejectsFloats(t *testing.T) {
	for _, v := range []any{3.14, float32(1.5)} {
		_, err := marshalValue(v)
		var serr *types.SerializationError
		require.ErrorAs(t, err, &serr, "value %v", v)
	}
}

func TestMarshalValueFixedByteArray(t *testing.T) {
	var pool [32]byte
	pool[0] = 0xab
	raw, err := marshalValue(pool)
	require.NoError(t, err)
	assert.Equal(t, `"0xab00000000000000000000000000000000000000000000000000000000000000"`, string(raw))
}

func TestNormalizeNumbers(t *testing.T) {
	in := []byte(`{
		"hash": "0xabc",
		"gasUsed": 21000,
		"paymentAmount": 115792089237316195423570985008687907853269984665640564039457584007913129639935,
		"nested": {"values": [1, 99999999999999999999]},
		"ratio": 0.5
	}`)

	out, err := NormalizeNumbers(in)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	// small integers and fractions stay numeric
	assert.Equal(t, float64(21000), doc["gasUsed"])
	assert.Equal(t, 0.5, doc["ratio"])

	// wide integers become exact strings
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", doc["paymentAmount"])

	nested := doc["nested"].(map[string]any)
	values := nested["values"].([]any)
	assert.Equal(t, float64(1), values[0])
	assert.Equal(t, "99999999999999999999", values[1])
}

func TestNormalizeNumbersRejectsGarbage(t *testing.T) {
	_, err := NormalizeNumbers([]byte(`{"unterminated`))
	assert.Error(t, err)
}
