package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"claim-portal/pkg/claim"
	"claim-portal/pkg/log"
	"claim-portal/pkg/permit2"
	"claim-portal/pkg/ui"
	"claim-portal/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	ErrClaimUnavailable      = errors.New("claim is not available")
	ErrInvalidateUnavailable = errors.New("invalidate is not available")
	ErrNoSuchClaim           = errors.New("no such claim")
)

// App is the whole claim page context.
type App struct {
	Claims      claim.ClaimSet
	Current     int
	Redemptions RedemptionIndex
	Signer      *wallet.Signer
	ChainID     *big.Int
	Treasury    *TreasuryStatus
	UI          ui.State
	Notices     []ui.Notice
}

type TreasuryView struct {
	Balance   string `json:"balance" yaml:"balance"`
	Allowance string `json:"allowance" yaml:"allowance"`
	Decimals  uint8  `json:"decimals" yaml:"decimals"`
}

// PageView is a rendering snapshot of App.
type PageView struct {
	Claims      claim.ClaimSet  `json:"claims" yaml:"claims"`
	Current     int             `json:"current" yaml:"current"`
	Redemptions RedemptionIndex `json:"redemptions" yaml:"redemptions"`
	Account     string          `json:"account,omitempty" yaml:"account,omitempty"`
	ChainID     uint64          `json:"chain_id,omitempty" yaml:"chain_id,omitempty"`
	Treasury    *TreasuryView   `json:"treasury,omitempty" yaml:"treasury,omitempty"`
	UI          ui.View         `json:"ui" yaml:"ui"`
	Notices     []ui.Notice     `json:"notices" yaml:"notices"`
}

type OrchestratorOptions struct {
	// Permit2 defaults to the canonical deployment.
	Permit2        common.Address
	Notifier       ui.Notifier
	ReceiptTimeout time.Duration
}

// Orchestrator drives the claim page: it loads claims, tracks the wallet and
// turns user gestures into Permit2 transactions.
type Orchestrator struct {
	mu       sync.Mutex
	app      App
	provider wallet.Provider
	store    RecordStore
	opts     OrchestratorOptions
}

// NewOrchestrator accepts a nil provider (no injected wallet) and a nil store.
func NewOrchestrator(provider wallet.Provider, store RecordStore, opts OrchestratorOptions) *Orchestrator {
	if opts.Permit2 == (common.Address{}) {
		opts.Permit2 = common.HexToAddress(permit2.Address)
	}
	if !wallet.Detect(provider) {
		provider = nil
	}

	return &Orchestrator{
		app:      App{Redemptions: RedemptionIndex{}},
		provider: provider,
		store:    store,
		opts:     opts,
	}
}

// Load decodes the claim parameter and evaluates the top claim. Decode
// failures leave the page in the error state and are returned.
func (o *Orchestrator) Load(ctx context.Context, param string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.app = App{Redemptions: RedemptionIndex{}}

	claims, err := claim.Decode(param)
	if err == nil && len(claims) == 0 {
		err = claim.ErrNoClaimData
	}
	if err != nil {
		kind, msg := ui.KindError, ui.MsgInvalidClaimData
		if errors.Is(err, claim.ErrNoClaimData) {
			kind, msg = ui.KindNotice, ui.MsgNoClaimData
		}
		log.Log.Warn("claim decode failed", zap.Error(err))
		o.app.UI.Fail()
		o.notify(kind, msg)
		return err
	}

	o.app.Claims = claims
	o.app.Redemptions = LookupRedemptions(ctx, o.store, claims)

	if o.provider == nil {
		o.evaluateOffline()
		o.notify(ui.KindInfo, ui.MsgNoWallet)
		return nil
	}

	_, _ = o.connect(ctx)

	chainID, err := o.provider.ChainID(ctx)
	if err != nil {
		log.Log.Warn("wallet chain id", zap.Error(err))
	} else {
		o.app.ChainID = chainID
	}

	o.evaluate(ctx, true)
	return nil
}

// Select makes another claim of the set the current one.
func (o *Orchestrator) Select(ctx context.Context, index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if index < 0 || index >= len(o.app.Claims) {
		return ErrNoSuchClaim
	}
	if o.app.UI.MakeClaim == ui.MakeClaimLoading {
		return ErrClaimUnavailable
	}

	o.app.Current = index
	o.app.UI.Claim = ui.ClaimUnknown
	if o.provider == nil {
		o.evaluateOffline()
		return nil
	}

	o.evaluate(ctx, true)
	return nil
}

// HandleChainChanged re-evaluates the controls for the new chain.
func (o *Orchestrator) HandleChainChanged(ctx context.Context, chainID *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.app.ChainID = chainID
	if !o.open() || o.app.UI.MakeClaim == ui.MakeClaimLoading {
		return
	}

	o.evaluate(ctx, false)
}

// HandleAccountsChanged rebinds the signer and re-evaluates the invalidate
// control, which depends on the account.
func (o *Orchestrator) HandleAccountsChanged(ctx context.Context, accounts []common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.provider == nil {
		return
	}

	o.app.Signer = nil
	if len(accounts) > 0 {
		_, _ = o.connect(ctx)
	}

	if !o.open() || o.app.UI.MakeClaim == ui.MakeClaimLoading {
		return
	}
	o.syncInvalidate()
}

// Run follows wallet events until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.provider == nil {
		return wallet.ErrNoProvider
	}

	events := make(chan wallet.Event, 16)
	sub := o.provider.SubscribeEvents(events)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case ev := <-events:
			log.Log.Debug("wallet event", zap.Stringer("kind", ev.Kind))
			switch ev.Kind {
			case wallet.ChainChanged:
				o.HandleChainChanged(ctx, ev.ChainID)
			case wallet.AccountsChanged:
				o.HandleAccountsChanged(ctx, ev.Accounts)
			}
		}
	}
}

// Claim redeems the current permit. Only one claim runs at a time; a second
// call while one is in flight returns ErrClaimUnavailable.
func (o *Orchestrator) Claim(ctx context.Context) error {
	o.mu.Lock()
	if !o.open() || o.app.UI.MakeClaim != ui.MakeClaimEnabled {
		o.mu.Unlock()
		return ErrClaimUnavailable
	}
	if o.app.Signer == nil {
		if _, err := o.connect(ctx); err != nil {
			o.notify(ui.KindError, ui.MsgConnectWallet)
			o.mu.Unlock()
			return err
		}
		o.syncInvalidate()
	}

	o.app.UI.MakeClaim = ui.MakeClaimLoading
	signer := o.app.Signer
	p := o.current()
	o.mu.Unlock()

	log.SetNonce(p.NonceKey())
	defer log.SetNonce("")

	status, txHash, err := o.submitClaim(ctx, signer, &p)

	o.mu.Lock()
	defer o.mu.Unlock()

	if status != nil {
		o.app.Treasury = status
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientAllowance):
			o.notify(ui.KindError, ui.MsgInsufficientAllowance)
		case errors.Is(err, ErrInsufficientFunds):
			o.notify(ui.KindError, ui.MsgInsufficientFunds)
		default:
			log.Log.Warn("claim failed", zap.String("nonce", p.NonceKey()), zap.Error(err))
			o.notify(ui.KindError, ui.MsgError(wallet.Reason(err)))
		}
		o.syncChain(ctx, false)
		return err
	}

	o.app.Redemptions[p.NonceKey()] = txHash.Hex()
	o.app.UI.Claimed()
	o.notify(ui.KindSuccess, ui.MsgClaimComplete)
	return nil
}

func (o *Orchestrator) submitClaim(ctx context.Context, signer *wallet.Signer, p *claim.Permit) (*TreasuryStatus, common.Hash, error) {
	status, err := ReadTreasury(ctx, o.provider.Backend(), p.TokenAddress(), p.OwnerAddress(), o.opts.Permit2)
	if err != nil {
		return nil, common.Hash{}, err
	}
	if err = status.Covers(p.RequestedAmount()); err != nil {
		return status, common.Hash{}, err
	}

	data, err := permit2.PackPermitTransferFrom(p)
	if err != nil {
		return status, common.Hash{}, err
	}

	txHash, err := signer.Transact(ctx, o.opts.Permit2, data)
	if err != nil {
		return status, common.Hash{}, err
	}
	if _, err = signer.WaitMined(ctx, txHash); err != nil {
		return status, txHash, err
	}

	if o.store != nil {
		if err := o.store.RecordTransaction(ctx, p.NonceKey(), txHash.Hex()); err != nil {
			log.Log.Error("record claim transaction",
				zap.String("nonce", p.NonceKey()),
				zap.String("tx", txHash.Hex()),
				zap.Error(err),
			)
		}
	}

	return status, txHash, nil
}

// Invalidate burns the current permit's nonce. It is offered to the permit
// owner only; failures leave the page untouched.
func (o *Orchestrator) Invalidate(ctx context.Context) error {
	o.mu.Lock()
	if o.app.UI.Invalidate != ui.ControlEnabled || o.app.Signer == nil {
		o.mu.Unlock()
		return ErrInvalidateUnavailable
	}
	signer := o.app.Signer
	p := o.current()
	o.mu.Unlock()

	log.SetNonce(p.NonceKey())
	defer log.SetNonce("")

	data, err := permit2.PackInvalidateNonce(p.Nonce())
	if err == nil {
		var txHash common.Hash
		if txHash, err = signer.Transact(ctx, o.opts.Permit2, data); err == nil {
			_, err = signer.WaitMined(ctx, txHash)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		log.Log.Warn("invalidate failed", zap.String("nonce", p.NonceKey()), zap.Error(err))
		o.notify(ui.KindError, ui.MsgError(wallet.Reason(err)))
		return err
	}

	o.notify(ui.KindSuccess, ui.MsgNonceInvalidated)
	return nil
}

func (o *Orchestrator) ToggleDetails() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.app.UI.ToggleDetails()
}

func (o *Orchestrator) View() PageView {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := PageView{
		Claims:      o.app.Claims,
		Current:     o.app.Current,
		Redemptions: o.app.Redemptions,
		UI:          o.app.UI.Render(),
		Notices:     append([]ui.Notice(nil), o.app.Notices...),
	}
	if o.app.Signer != nil {
		v.Account = o.app.Signer.Address().Hex()
	}
	if o.app.ChainID != nil {
		v.ChainID = o.app.ChainID.Uint64()
	}
	if t := o.app.Treasury; t != nil {
		v.Treasury = &TreasuryView{
			Balance:   t.Format(t.Balance),
			Allowance: t.Format(t.Allowance),
			Decimals:  t.Decimals,
		}
	}

	return v
}

// The helpers below expect o.mu to be held.

func (o *Orchestrator) current() claim.Permit {
	return o.app.Claims[o.app.Current]
}

func (o *Orchestrator) open() bool {
	return o.provider != nil && len(o.app.Claims) > 0 && o.app.UI.Claim == ui.ClaimOpen
}

func (o *Orchestrator) onNetwork(p *claim.Permit) bool {
	return o.app.ChainID != nil && o.app.ChainID.Cmp(p.ChainID()) == 0
}

func (o *Orchestrator) connect(ctx context.Context) (*wallet.Signer, error) {
	signer, err := wallet.Connect(ctx, o.provider)
	if err != nil {
		log.Log.Warn("wallet connect", zap.Error(err))
		o.app.Signer = nil
		return nil, err
	}
	if o.opts.ReceiptTimeout > 0 {
		signer.ReceiptTimeout = o.opts.ReceiptTimeout
	}

	o.app.Signer = signer
	return signer, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, prompt bool) {
	p := o.current()
	o.app.Treasury = nil

	if o.redeemed(ctx, &p) {
		o.app.UI.Claimed()
		o.notify(ui.KindInfo, ui.MsgAlreadyClaimed)
		return
	}

	o.app.UI.Claim = ui.ClaimOpen
	if o.onNetwork(&p) {
		status, err := ReadTreasury(ctx, o.provider.Backend(), p.TokenAddress(), p.OwnerAddress(), o.opts.Permit2)
		if err != nil {
			log.Log.Warn("treasury read", zap.String("token", p.TokenAddress().Hex()), zap.Error(err))
		} else {
			o.app.Treasury = status
		}
	}

	o.syncChain(ctx, prompt)
}

// evaluateOffline runs without a wallet: only the record store can tell
// the claim is spent and every control stays hidden.
func (o *Orchestrator) evaluateOffline() {
	p := o.current()
	o.app.UI.HideAll()

	if o.app.Redemptions.Redeemed(p.NonceKey()) {
		o.app.UI.Claimed()
		o.notify(ui.KindInfo, ui.MsgAlreadyClaimed)
	}
}

// redeemed consults the record store index and, on the permit's own chain,
// the Permit2 nonce bitmap.
func (o *Orchestrator) redeemed(ctx context.Context, p *claim.Permit) bool {
	if o.app.Redemptions.Redeemed(p.NonceKey()) {
		return true
	}
	if !o.onNetwork(p) {
		return false
	}

	used, err := NonceUsed(ctx, o.provider.Backend(), o.opts.Permit2, p.OwnerAddress(), p.Nonce())
	if err != nil {
		log.Log.Warn("nonce bitmap read", zap.String("nonce", p.NonceKey()), zap.Error(err))
		return false
	}
	return used
}

func (o *Orchestrator) syncChain(ctx context.Context, prompt bool) {
	p := o.current()

	if o.onNetwork(&p) {
		o.app.UI.MakeClaim = ui.MakeClaimEnabled
	} else {
		o.app.UI.MakeClaim = ui.MakeClaimDisabled
		if prompt {
			o.notify(ui.KindWarning, ui.MsgSwitchNetwork(p.NetworkId))
			if o.switchChain(ctx, &p) {
				o.evaluate(ctx, false)
				return
			}
		}
	}

	o.syncInvalidate()
}

// switchChain asks the wallet for the permit's chain, then reads the wallet's
// chain back and reports whether it now matches.
func (o *Orchestrator) switchChain(ctx context.Context, p *claim.Permit) bool {
	if err := o.provider.SwitchChain(ctx, p.ChainID()); err != nil {
		log.Log.Warn("switch chain", zap.Uint64("chain_id", p.NetworkId), zap.Error(err))
		return false
	}

	chainID, err := o.provider.ChainID(ctx)
	if err != nil {
		log.Log.Warn("wallet chain id", zap.Error(err))
		return false
	}
	o.app.ChainID = chainID
	return o.onNetwork(p)
}

func (o *Orchestrator) syncInvalidate() {
	p := o.current()

	switch {
	case o.app.UI.Claim != ui.ClaimOpen || o.app.Signer == nil || o.app.Signer.Address() != p.OwnerAddress():
		o.app.UI.Invalidate = ui.ControlHidden
	case o.onNetwork(&p):
		o.app.UI.Invalidate = ui.ControlEnabled
	default:
		o.app.UI.Invalidate = ui.ControlDisabled
	}
}

func (o *Orchestrator) notify(kind ui.NoticeKind, msg string) {
	n := ui.Notice{Kind: kind, Message: msg}
	o.app.Notices = append(o.app.Notices, n)
	log.Log.Info("notice", zap.String("kind", string(kind)), zap.String("message", msg))

	if o.opts.Notifier != nil {
		o.opts.Notifier.Notify(n)
	}
}
