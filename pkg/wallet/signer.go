package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"claim-portal/pkg/log"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var (
	ErrNoProvider = errors.New("no wallet provider")
	ErrNoAccounts = errors.New("wallet returned no accounts")
	ErrReverted   = errors.New("transaction reverted")
)

const DefaultReceiptTimeout = 2 * time.Minute

// Signer is a signing handle bound to one account of a provider.
type Signer struct {
	provider       Provider
	account        common.Address
	ReceiptTimeout time.Duration
}

// Connect requests account access and binds a signer to the first account.
func Connect(ctx context.Context, p Provider) (*Signer, error) {
	if p == nil {
		return nil, ErrNoProvider
	}

	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	return &Signer{
		provider:       p,
		account:        accounts[0],
		ReceiptTimeout: DefaultReceiptTimeout,
	}, nil
}

func (s *Signer) Address() common.Address {
	return s.account
}

// Transact signs and sends a zero-value call to `to`.
func (s *Signer) Transact(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	b := s.provider.Backend()

	nonce, err := b.PendingNonceAt(ctx, s.account)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gas, err := b.EstimateGas(ctx, ethereum.CallMsg{From: s.account, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, err
	}
	gas += gas / 5

	gasPrice, err := b.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    new(big.Int),
		Data:     data,
	})

	signed, err := s.provider.SignTx(ctx, s.account, tx)
	if err != nil {
		return common.Hash{}, err
	}

	if err = b.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}

	log.Log.Info("transaction sent",
		zap.String("from", s.account.Hex()),
		zap.String("to", to.Hex()),
		zap.String("tx", signed.Hash().Hex()),
	)
	return signed.Hash(), nil
}

// WaitMined polls for the receipt until it shows up or ReceiptTimeout passes.
func (s *Signer) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b := s.provider.Backend()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = s.ReceiptTimeout

	var receipt *types.Receipt
	err := backoff.Retry(func() error {
		r, err := b.TransactionReceipt(ctx, hash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("receipt for %s: %w", hash.Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, ErrReverted
	}
	return receipt, nil
}

// Reason extracts the most useful text from a wallet or rpc error, decoding
// Error(string) revert data when present.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(data); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}

	return err.Error()
}
