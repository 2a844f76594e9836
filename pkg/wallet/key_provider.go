package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"claim-portal/pkg/log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

var (
	ErrUnknownAccount   = errors.New("account not managed by this wallet")
	ErrUnsupportedChain = errors.New("wallet has no rpc for chain")
)

// KeyProvider is a wallet holding a single ECDSA key and one RPC backend
// per chain it can switch to.
type KeyProvider struct {
	key     *ecdsa.PrivateKey
	account common.Address
	feed    event.Feed

	mu       sync.Mutex
	backends map[string]Backend
	active   *big.Int
}

// NewKeyProvider makes the first backend active.
func NewKeyProvider(ctx context.Context, privateKeyHex string, backends ...Backend) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if len(backends) == 0 {
		return nil, errors.New("no rpc backend")
	}

	p := &KeyProvider{
		key:      key,
		account:  crypto.PubkeyToAddress(key.PublicKey),
		backends: make(map[string]Backend, len(backends)),
	}

	for _, b := range backends {
		chainID, err := b.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		if p.active == nil {
			p.active = chainID
		}
		p.backends[chainID.String()] = b
	}

	return p, nil
}

// Dial connects one ethclient per url.
func Dial(ctx context.Context, privateKeyHex string, rpcURLs ...string) (*KeyProvider, error) {
	var backends []Backend
	for _, url := range rpcURLs {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rpc %s: %w", url, err)
		}
		backends = append(backends, client)
	}

	return NewKeyProvider(ctx, privateKeyHex, backends...)
}

func (p *KeyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

// ChainID asks the active rpc so that a chain swapped underneath it is seen.
func (p *KeyProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.Backend().ChainID(ctx)
}

func (p *KeyProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.mu.Lock()
	if _, ok := p.backends[chainID.String()]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w %s", ErrUnsupportedChain, chainID)
	}
	changed := p.active.Cmp(chainID) != 0
	p.active = new(big.Int).Set(chainID)
	p.mu.Unlock()

	if changed {
		p.feed.Send(Event{Kind: ChainChanged, ChainID: new(big.Int).Set(chainID)})
	}
	return nil
}

func (p *KeyProvider) SubscribeEvents(ch chan<- Event) event.Subscription {
	return p.feed.Subscribe(ch)
}

func (p *KeyProvider) SignTx(ctx context.Context, account common.Address, tx *types.Transaction) (*types.Transaction, error) {
	if account != p.account {
		return nil, ErrUnknownAccount
	}

	p.mu.Lock()
	chainID := new(big.Int).Set(p.active)
	p.mu.Unlock()

	return types.SignTx(tx, types.LatestSignerForChainID(chainID), p.key)
}

func (p *KeyProvider) Backend() Backend {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.backends[p.active.String()]
}

// Watch polls the active rpc and publishes ChainChanged when the reported
// chain id moves. It returns when ctx is done.
func (p *KeyProvider) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *big.Int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		chainID, err := p.ChainID(ctx)
		if err != nil {
			log.Log.Warn("failed to poll chain id", zap.Error(err))
			continue
		}
		if last != nil && last.Cmp(chainID) != 0 {
			p.feed.Send(Event{Kind: ChainChanged, ChainID: chainID})
		}
		last = chainID
	}
}
