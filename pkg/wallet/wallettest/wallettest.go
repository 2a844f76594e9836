// Package wallettest provides in-memory wallet and chain fakes for tests.
package wallettest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"claim-portal/pkg/wallet"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// CallHandler answers a decoded contract call with the method outputs.
type CallHandler func(to common.Address, args []interface{}) ([]interface{}, error)

// Backend answers eth_call by decoding calldata against the registered ABIs
// and records sent transactions, mining them immediately.
type Backend struct {
	mu sync.Mutex

	Chain       *big.Int
	ABIs        []abi.ABI
	Handlers    map[string]CallHandler
	EstimateErr error
	SendErr     error
	Reverts     bool

	Sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

func NewBackend(chainID int64, abis ...abi.ABI) *Backend {
	return &Backend{
		Chain:    big.NewInt(chainID),
		ABIs:     abis,
		Handlers: map[string]CallHandler{},
		receipts: map[common.Hash]*types.Receipt{},
	}
}

// Handle registers the answer for a method name.
func (b *Backend) Handle(method string, h CallHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Handlers[method] = h
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.Chain), nil
}

func (b *Backend) SetChainID(chainID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Chain = big.NewInt(chainID)
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if len(call.Data) < 4 || call.To == nil {
		return nil, errors.New("bad call")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range b.ABIs {
		m, err := a.MethodById(call.Data[:4])
		if err != nil {
			continue
		}
		h, ok := b.Handlers[m.Name]
		if !ok {
			return nil, fmt.Errorf("no handler for %s", m.Name)
		}
		args, err := m.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		outs, err := h(*call.To, args)
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(outs...)
	}

	return nil, fmt.Errorf("unknown selector %x", call.Data[:4])
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return 100_000, nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.Sent)), nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return b.SendErr
	}

	status := types.ReceiptStatusSuccessful
	if b.Reverts {
		status = types.ReceiptStatusFailed
	}
	b.Sent = append(b.Sent, tx)
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(b.Sent))),
	}
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// SentTo returns the calldata of every transaction sent to addr.
func (b *Backend) SentTo(addr common.Address) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res [][]byte
	for _, tx := range b.Sent {
		if tx.To() != nil && *tx.To() == addr {
			res = append(res, tx.Data())
		}
	}
	return res
}

// Provider is a scriptable injected wallet.
type Provider struct {
	mu sync.Mutex

	Accounts   []common.Address
	RequestErr error
	SwitchErr  error
	SignErr    error
	Switches   []*big.Int
	Chain      *big.Int

	// AcceptSwitch makes SwitchChain move the wallet like SetChain does.
	AcceptSwitch bool

	backend *Backend
	feed    event.Feed
}

func NewProvider(backend *Backend, accounts ...common.Address) *Provider {
	return &Provider{
		Accounts: accounts,
		Chain:    new(big.Int).Set(backend.Chain),
		backend:  backend,
	}
}

func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.RequestErr != nil {
		return nil, p.RequestErr
	}
	return append([]common.Address(nil), p.Accounts...), nil
}

func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.Chain), nil
}

// SwitchChain records the request. The chain only moves when AcceptSwitch
// is set, otherwise through SetChain.
func (p *Provider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.mu.Lock()
	p.Switches = append(p.Switches, chainID)
	if p.SwitchErr != nil {
		p.mu.Unlock()
		return p.SwitchErr
	}
	accept := p.AcceptSwitch
	p.mu.Unlock()

	if accept {
		p.SetChain(chainID.Int64())
	}
	return nil
}

func (p *Provider) SubscribeEvents(ch chan<- wallet.Event) event.Subscription {
	return p.feed.Subscribe(ch)
}

func (p *Provider) SignTx(ctx context.Context, account common.Address, tx *types.Transaction) (*types.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SignErr != nil {
		return nil, p.SignErr
	}
	return tx, nil
}

func (p *Provider) Backend() wallet.Backend {
	return p.backend
}

// SetChain moves the wallet to another chain and publishes ChainChanged.
func (p *Provider) SetChain(chainID int64) {
	p.mu.Lock()
	p.Chain = big.NewInt(chainID)
	p.mu.Unlock()
	p.feed.Send(wallet.Event{Kind: wallet.ChainChanged, ChainID: big.NewInt(chainID)})
}

// SetAccounts swaps the accounts and publishes AccountsChanged.
func (p *Provider) SetAccounts(accounts ...common.Address) {
	p.mu.Lock()
	p.Accounts = accounts
	p.mu.Unlock()
	p.feed.Send(wallet.Event{Kind: wallet.AccountsChanged, Accounts: accounts})
}
