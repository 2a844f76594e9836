package wallet

import (
	"context"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Backend is the network access a wallet exposes to the page.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type EventKind uint8

const (
	ChainChanged EventKind = iota + 1
	AccountsChanged
)

func (k EventKind) String() string {
	switch k {
	case ChainChanged:
		return "chainChanged"
	case AccountsChanged:
		return "accountsChanged"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	ChainID  *big.Int
	Accounts []common.Address
}

// Provider is an injected wallet: it grants account access, signs for the
// accounts it holds and reports chain and account changes.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SwitchChain(ctx context.Context, chainID *big.Int) error
	SubscribeEvents(ch chan<- Event) event.Subscription
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction) (*types.Transaction, error)
	Backend() Backend
}

// Detect reports whether a wallet is injected at all.
func Detect(p Provider) bool {
	if p == nil {
		return false
	}
	v := reflect.ValueOf(p)
	return v.Kind() != reflect.Ptr || !v.IsNil()
}
