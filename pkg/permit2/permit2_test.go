package permit2

import (
	"math/big"
	"testing"

	"claim-portal/pkg/claim"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPermit() *claim.Permit {
	return &claim.Permit{
		Type: claim.TypeERC20Permit,
		Permit: claim.PermitTransferFrom{
			Permitted: claim.TokenPermissions{
				Token:  "0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d",
				Amount: "10000000000000000",
			},
			Nonce:    "261",
			Deadline: "1900000000",
		},
		TransferDetails: claim.TransferDetails{
			To:              "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			RequestedAmount: "9000000000000000",
		},
		Owner:     "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Signature: "0x8affae5e09a927d0",
		NetworkId: 31337,
	}
}

func TestPackPermitTransferFrom(t *testing.T) {
	data, err := PackPermitTransferFrom(testPermit())
	require.NoError(t, err)

	selector := crypto.Keccak256([]byte("permitTransferFrom(((address,uint256),uint256,uint256),(address,uint256),address,bytes)"))[:4]
	assert.Equal(t, selector, data[:4])

	method := Permit2ABI.Methods["permitTransferFrom"]
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 4)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), args[2].(common.Address))
	assert.Equal(t, common.FromHex("0x8affae5e09a927d0"), args[3].([]byte))
}

func TestNoncePosition(t *testing.T) {
	// 261 = word 1, bit 5
	wordPos, mask := NoncePosition(big.NewInt(261))
	assert.Equal(t, int64(1), wordPos.Int64())
	assert.Equal(t, int64(32), mask.Int64())

	wordPos, mask = NoncePosition(big.NewInt(255))
	assert.Equal(t, int64(0), wordPos.Int64())
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 255), mask)
}

func TestIsNonceUsed(t *testing.T) {
	nonce := big.NewInt(261)
	assert.False(t, IsNonceUsed(big.NewInt(0), nonce))
	assert.True(t, IsNonceUsed(big.NewInt(32), nonce))
	assert.True(t, IsNonceUsed(big.NewInt(32|1), nonce))
	assert.False(t, IsNonceUsed(big.NewInt(16), nonce))
}

func TestPackInvalidateNonce(t *testing.T) {
	data, err := PackInvalidateNonce(big.NewInt(261))
	require.NoError(t, err)

	selector := crypto.Keccak256([]byte("invalidateUnorderedNonces(uint256,uint256)"))[:4]
	assert.Equal(t, selector, data[:4])

	args, err := Permit2ABI.Methods["invalidateUnorderedNonces"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(1), args[0].(*big.Int).Int64())
	assert.Equal(t, int64(32), args[1].(*big.Int).Int64())
}
