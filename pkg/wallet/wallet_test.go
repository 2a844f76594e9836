package wallet_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"claim-portal/pkg/permit2"
	"claim-portal/pkg/wallet"
	"claim-portal/pkg/wallet/wallettest"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// first anvil dev account
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAccount = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestKeyProvider(t *testing.T) {
	ctx := context.Background()
	local := wallettest.NewBackend(31337)
	gnosis := wallettest.NewBackend(100)

	p, err := wallet.NewKeyProvider(ctx, devKey, local, gnosis)
	require.NoError(t, err)

	accounts, err := p.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(devAccount)}, accounts)

	chainID, err := p.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(31337), chainID.Int64())

	events := make(chan wallet.Event, 1)
	sub := p.SubscribeEvents(events)
	defer sub.Unsubscribe()

	require.NoError(t, p.SwitchChain(ctx, big.NewInt(100)))
	ev := <-events
	assert.Equal(t, wallet.ChainChanged, ev.Kind)
	assert.Equal(t, int64(100), ev.ChainID.Int64())
	assert.Same(t, gnosis, p.Backend())

	err = p.SwitchChain(ctx, big.NewInt(1))
	assert.ErrorIs(t, err, wallet.ErrUnsupportedChain)
}

func TestKeyProviderInvalidKey(t *testing.T) {
	_, err := wallet.NewKeyProvider(context.Background(), "0x1234", wallettest.NewBackend(1))
	assert.Error(t, err)

	_, err = wallet.NewKeyProvider(context.Background(), devKey)
	assert.Error(t, err)
}

func TestKeyProviderSignTx(t *testing.T) {
	ctx := context.Background()
	p, err := wallet.NewKeyProvider(ctx, devKey, wallettest.NewBackend(31337))
	require.NoError(t, err)

	to := common.HexToAddress(permit2.Address)
	tx := types.NewTx(&types.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000, To: &to, Value: big.NewInt(0)})

	signed, err := p.SignTx(ctx, common.HexToAddress(devAccount), tx)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), signed)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(devAccount), sender)

	_, err = p.SignTx(ctx, to, tx)
	assert.ErrorIs(t, err, wallet.ErrUnknownAccount)
}

func TestKeyProviderWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := wallettest.NewBackend(31337)
	p, err := wallet.NewKeyProvider(ctx, devKey, backend)
	require.NoError(t, err)

	events := make(chan wallet.Event, 1)
	sub := p.SubscribeEvents(events)
	defer sub.Unsubscribe()

	go p.Watch(ctx, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	// the node was restarted on another chain
	backend.SetChainID(100)

	select {
	case ev := <-events:
		assert.Equal(t, wallet.ChainChanged, ev.Kind)
		assert.Equal(t, int64(100), ev.ChainID.Int64())
	case <-time.After(time.Second):
		t.Fatal("no chainChanged event")
	}
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	_, err := wallet.Connect(ctx, nil)
	assert.ErrorIs(t, err, wallet.ErrNoProvider)

	backend := wallettest.NewBackend(31337)
	p := wallettest.NewProvider(backend)
	_, err = wallet.Connect(ctx, p)
	assert.ErrorIs(t, err, wallet.ErrNoAccounts)

	p.RequestErr = errors.New("user rejected the request")
	_, err = wallet.Connect(ctx, p)
	assert.EqualError(t, err, "user rejected the request")

	p.RequestErr = nil
	p.Accounts = []common.Address{common.HexToAddress(devAccount)}
	s, err := wallet.Connect(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(devAccount), s.Address())
}

func TestTransactAndWait(t *testing.T) {
	ctx := context.Background()
	backend := wallettest.NewBackend(31337)
	p := wallettest.NewProvider(backend, common.HexToAddress(devAccount))

	s, err := wallet.Connect(ctx, p)
	require.NoError(t, err)

	to := common.HexToAddress(permit2.Address)
	hash, err := s.Transact(ctx, to, []byte{0x01, 0x02})
	require.NoError(t, err)

	receipt, err := s.WaitMined(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, receipt.TxHash)
	require.Len(t, backend.SentTo(to), 1)
	assert.Equal(t, uint64(120_000), backend.Sent[0].Gas())

	backend.Reverts = true
	hash, err = s.Transact(ctx, to, nil)
	require.NoError(t, err)
	_, err = s.WaitMined(ctx, hash)
	assert.ErrorIs(t, err, wallet.ErrReverted)
}

func TestWaitMinedTimeout(t *testing.T) {
	ctx := context.Background()
	backend := wallettest.NewBackend(31337)
	s, err := wallet.Connect(ctx, wallettest.NewProvider(backend, common.HexToAddress(devAccount)))
	require.NoError(t, err)

	s.ReceiptTimeout = 50 * time.Millisecond
	_, err = s.WaitMined(ctx, common.HexToHash("0x01"))
	assert.Error(t, err)
}

type dataError struct {
	msg  string
	data interface{}
}

func (e *dataError) Error() string          { return e.msg }
func (e *dataError) ErrorData() interface{} { return e.data }

func TestReason(t *testing.T) {
	assert.Equal(t, "", wallet.Reason(nil))
	assert.Equal(t, "user rejected", wallet.Reason(errors.New("user rejected")))

	str, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: str}}.Pack("TRANSFER_FROM_FAILED")
	require.NoError(t, err)
	revert := append(common.FromHex("0x08c379a0"), packed...)

	err = &dataError{msg: "execution reverted", data: hexutil.Encode(revert)}
	assert.Equal(t, "TRANSFER_FROM_FAILED", wallet.Reason(err))

	err = &dataError{msg: "execution reverted", data: "0x756688fe"}
	assert.Equal(t, "execution reverted", wallet.Reason(err))
}
