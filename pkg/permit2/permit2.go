package permit2

import (
	"math/big"

	"claim-portal/pkg/claim"

	"github.com/ethereum/go-ethereum/common"
)

type tokenPermissions struct {
	Token  common.Address
	Amount *big.Int
}

type permitTransferFrom struct {
	Permitted tokenPermissions
	Nonce     *big.Int
	Deadline  *big.Int
}

type signatureTransferDetails struct {
	To              common.Address
	RequestedAmount *big.Int
}

// PackPermitTransferFrom encodes the full claim payload as a
// permitTransferFrom call.
func PackPermitTransferFrom(p *claim.Permit) ([]byte, error) {
	permit := permitTransferFrom{
		Permitted: tokenPermissions{
			Token:  p.TokenAddress(),
			Amount: p.PermittedAmount(),
		},
		Nonce:    p.Nonce(),
		Deadline: p.Deadline(),
	}
	details := signatureTransferDetails{
		To:              p.Beneficiary(),
		RequestedAmount: p.RequestedAmount(),
	}

	return Permit2ABI.Pack("permitTransferFrom", permit, details, p.OwnerAddress(), p.SignatureBytes())
}

// NoncePosition splits an unordered nonce into its bitmap word and the mask
// of its bit inside that word.
func NoncePosition(nonce *big.Int) (wordPos, mask *big.Int) {
	wordPos = new(big.Int).Rsh(nonce, 8)
	bit := new(big.Int).And(nonce, big.NewInt(0xff)).Uint64()
	mask = new(big.Int).Lsh(common.Big1, uint(bit))
	return wordPos, mask
}

func PackInvalidateNonce(nonce *big.Int) ([]byte, error) {
	wordPos, mask := NoncePosition(nonce)
	return Permit2ABI.Pack("invalidateUnorderedNonces", wordPos, mask)
}

func PackNonceBitmap(owner common.Address, nonce *big.Int) ([]byte, error) {
	wordPos, _ := NoncePosition(nonce)
	return Permit2ABI.Pack("nonceBitmap", owner, wordPos)
}

// IsNonceUsed reports whether the nonce's bit is set in its bitmap word.
func IsNonceUsed(bitmap, nonce *big.Int) bool {
	_, mask := NoncePosition(nonce)
	return new(big.Int).And(bitmap, mask).Sign() != 0
}
