package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"claim-portal/pkg/permit2"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientAllowance = errors.New("not enough allowance to claim")
	ErrInsufficientFunds     = errors.New("not enough funds on treasury to claim")
)

// ContractCaller is the read-only chain access the treasury reads need.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TreasuryStatus is a fresh read of the permit owner's token position.
type TreasuryStatus struct {
	Balance   *big.Int `json:"balance" yaml:"balance"`
	Allowance *big.Int `json:"allowance" yaml:"allowance"`
	Decimals  uint8    `json:"decimals" yaml:"decimals"`
}

// ReadTreasury reads balanceOf(owner), allowance(owner, spender) and
// decimals() of token.
func ReadTreasury(ctx context.Context, caller ContractCaller, token, owner, spender common.Address) (*TreasuryStatus, error) {
	balance, err := callUint(ctx, caller, permit2.ERC20ABI, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}

	allowance, err := callUint(ctx, caller, permit2.ERC20ABI, token, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}

	outs, err := call(ctx, caller, permit2.ERC20ABI, token, "decimals")
	if err != nil {
		return nil, err
	}
	decimals, ok := outs[0].(uint8)
	if !ok {
		return nil, fmt.Errorf("decimals: unexpected %T", outs[0])
	}

	return &TreasuryStatus{
		Balance:   balance,
		Allowance: allowance,
		Decimals:  decimals,
	}, nil
}

// NonceUsed reads the owner's Permit2 nonce bitmap word and checks the bit of
// nonce.
func NonceUsed(ctx context.Context, caller ContractCaller, permit2Addr, owner common.Address, nonce *big.Int) (bool, error) {
	wordPos, _ := permit2.NoncePosition(nonce)

	bitmap, err := callUint(ctx, caller, permit2.Permit2ABI, permit2Addr, "nonceBitmap", owner, wordPos)
	if err != nil {
		return false, err
	}

	return permit2.IsNonceUsed(bitmap, nonce), nil
}

// Covers checks that both balance and allowance reach amount. A short
// balance wins over a short allowance.
func (t *TreasuryStatus) Covers(amount *big.Int) error {
	balanceOk := t.Balance.Cmp(amount) >= 0
	allowanceOk := t.Allowance.Cmp(amount) >= 0
	if balanceOk && allowanceOk {
		return nil
	}
	if balanceOk {
		return ErrInsufficientAllowance
	}
	return ErrInsufficientFunds
}

// Format renders v in whole token units.
func (t *TreasuryStatus) Format(v *big.Int) string {
	return FormatUnits(v, t.Decimals)
}

func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

func call(ctx context.Context, caller ContractCaller, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	res, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	outs, err := contract.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(outs) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}

	return outs, nil
}

func callUint(ctx context.Context, caller ContractCaller, contract abi.ABI, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	outs, err := call(ctx, caller, contract, to, method, args...)
	if err != nil {
		return nil, err
	}

	v, ok := outs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected %T", method, outs[0])
	}
	return v, nil
}
