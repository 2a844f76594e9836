package utils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringToBigint(t *testing.T) {
	b, err := StringToBigint("")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), b.Int64())

	_, err = StringToBigint("-1")
	assert.Error(t, err)

	_, err = StringToBigint("12a")
	assert.Error(t, err)

	assert.Equal(t, "10000000000000000", MustStringToBigint("10000000000000000").String())
}

func TestStringToUint256(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "empty", in: "", ok: false},
		{name: "zero", in: "0", ok: true},
		// u256 max : 115792089237316195423570985008687907853269984665640564039457584007913129639935
		{name: "max", in: "115792089237316195423570985008687907853269984665640564039457584007913129639935", ok: true},
		{name: "overflow", in: "115792089237316195423570985008687907853269984665640564039457584007913129639936", ok: false},
		{name: "hex", in: "0x10", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StringToUint256(tt.in)
			assert.Equal(t, tt.ok, err == nil)
		})
	}
}

func TestIsValidERCAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "checksummed", in: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", want: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", ok: true},
		{name: "lower", in: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", want: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", ok: true},
		{name: "bad checksum", in: "0x70997970c51812dc3A010C7d01b50e0d17dc79C8", ok: false},
		{name: "short", in: "0x7099", ok: false},
		{name: "no prefix", in: "70997970c51812dc3a010c7d01b50e0d17dc79c8", ok: false},
		{name: "empty", in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IsValidERCAddress(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnpack(t *testing.T) {
	u, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	data, err := abi.Arguments{{Type: u}}.Pack(big.NewInt(48))
	require.NoError(t, err)

	r, err := Unpack([]string{"uint256"}, data)
	require.NoError(t, err)
	require.Len(t, r, 1)
	assert.Equal(t, int64(48), r[0].(*big.Int).Int64())
}

func TestNextID(t *testing.T) {
	a, err := NextID()
	require.NoError(t, err)
	b, err := NextID()
	require.NoError(t, err)
	assert.Less(t, a, b)
}
