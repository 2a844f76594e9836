package claim

import (
	"math/big"

	"claim-portal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const TypeERC20Permit = "erc20-permit"

type TokenPermissions struct {
	Token  string `json:"token" yaml:"token"`
	Amount string `json:"amount" yaml:"amount"`
}

type PermitTransferFrom struct {
	Permitted TokenPermissions `json:"permitted" yaml:"permitted"`
	Nonce     string           `json:"nonce" yaml:"nonce"`
	Deadline  string           `json:"deadline" yaml:"deadline"`
}

type TransferDetails struct {
	To              string `json:"to" yaml:"to"`
	RequestedAmount string `json:"requestedAmount" yaml:"requestedAmount"`
}

// Permit is one signed transfer carried in a claim link. Numeric fields stay
// decimal strings on the wire; the accessors below are only safe on permits
// returned by Decode.
type Permit struct {
	Type            string             `json:"type,omitempty" yaml:"type,omitempty"`
	Permit          PermitTransferFrom `json:"permit" yaml:"permit"`
	TransferDetails TransferDetails    `json:"transferDetails" yaml:"transferDetails"`
	Owner           string             `json:"owner" yaml:"owner"`
	Signature       string             `json:"signature" yaml:"signature"`
	NetworkId       uint64             `json:"networkId" yaml:"networkId"`
}

// ClaimSet keeps the display order of the link.
type ClaimSet []Permit

func (p *Permit) NonceKey() string {
	return p.Nonce().String()
}

func (p *Permit) Nonce() *big.Int {
	return utils.MustStringToBigint(p.Permit.Nonce)
}

func (p *Permit) Deadline() *big.Int {
	return utils.MustStringToBigint(p.Permit.Deadline)
}

func (p *Permit) PermittedAmount() *big.Int {
	return utils.MustStringToBigint(p.Permit.Permitted.Amount)
}

func (p *Permit) RequestedAmount() *big.Int {
	return utils.MustStringToBigint(p.TransferDetails.RequestedAmount)
}

func (p *Permit) TokenAddress() common.Address {
	return common.HexToAddress(p.Permit.Permitted.Token)
}

func (p *Permit) OwnerAddress() common.Address {
	return common.HexToAddress(p.Owner)
}

func (p *Permit) Beneficiary() common.Address {
	return common.HexToAddress(p.TransferDetails.To)
}

func (p *Permit) SignatureBytes() []byte {
	return hexutil.MustDecode(p.Signature)
}

func (p *Permit) ChainID() *big.Int {
	return new(big.Int).SetUint64(p.NetworkId)
}
