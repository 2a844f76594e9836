package claim

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"claim-portal/pkg/claim"
	"claim-portal/pkg/permit2"
	"claim-portal/pkg/wallet"
	"claim-portal/pkg/wallet/wallettest"
	"claim-portal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testLink(t *testing.T) string {
	encoded, err := claim.Encode(claim.ClaimSet{{
		Permit: claim.PermitTransferFrom{
			Permitted: claim.TokenPermissions{Token: "0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d", Amount: "5000000"},
			Nonce:     "3",
			Deadline:  "9999999999",
		},
		TransferDetails: claim.TransferDetails{To: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", RequestedAmount: "5000000"},
		Owner:           "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Signature:       "0x" + strings.Repeat("cd", 65),
		NetworkId:       31337,
	}})
	require.NoError(t, err)

	return "https://pay.example.org/?claim=" + encoded
}

func newChainBackend() *wallettest.Backend {
	b := wallettest.NewBackend(31337, permit2.ERC20ABI, permit2.Permit2ABI)
	b.Handle("balanceOf", func(to common.Address, args []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(9_000_000)}, nil
	})
	b.Handle("allowance", func(to common.Address, args []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(9_000_000)}, nil
	})
	b.Handle("decimals", func(to common.Address, args []interface{}) ([]interface{}, error) {
		return []interface{}{uint8(6)}, nil
	})
	b.Handle("nonceBitmap", func(to common.Address, args []interface{}) ([]interface{}, error) {
		return []interface{}{new(big.Int)}, nil
	})
	return b
}

func TestRunWithoutWallet(t *testing.T) {
	ctx := context.Background()
	orch := service.NewOrchestrator(nil, nil, service.OrchestratorOptions{})

	require.NoError(t, run(ctx, orch, nil, testLink(t), options{details: true, claim: false}, 0))

	var out bytes.Buffer
	require.NoError(t, render(&out, orch.View(), "text"))
	assert.Contains(t, out.String(), `data-make-claim="hidden"`)
	assert.Contains(t, out.String(), `data-details-visible="true"`)
	assert.Contains(t, out.String(), "* [0] nonce 3: 5000000 of 0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d")
	assert.Contains(t, out.String(), "owner 0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.NotContains(t, out.String(), "controls:")
}

func TestRunBadLink(t *testing.T) {
	orch := service.NewOrchestrator(nil, nil, service.OrchestratorOptions{})

	err := run(context.Background(), orch, nil, "https://pay.example.org/?claim=%21%21", options{}, 0)
	assert.ErrorIs(t, err, claim.ErrInvalidClaimData)
	assert.Equal(t, "error", orch.View().UI.Attributes["data-make-claim"])
}

func TestRunClaim(t *testing.T) {
	ctx := context.Background()
	backend := newChainBackend()
	kp, err := wallet.NewKeyProvider(ctx, devKey, backend)
	require.NoError(t, err)

	orch := service.NewOrchestrator(kp, nil, service.OrchestratorOptions{})
	require.NoError(t, run(ctx, orch, kp, testLink(t), options{claim: true}, 0))
	require.Len(t, backend.SentTo(common.HexToAddress(permit2.Address)), 1)

	var out bytes.Buffer
	require.NoError(t, render(&out, orch.View(), "yaml"))

	var doc struct {
		Treasury struct {
			Balance string `yaml:"balance"`
		} `yaml:"treasury"`
		UI struct {
			Attributes map[string]string `yaml:"attributes"`
		} `yaml:"ui"`
		Notices []struct {
			Message string `yaml:"message"`
		} `yaml:"notices"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "none", doc.UI.Attributes["data-claim"])
	assert.Equal(t, "9", doc.Treasury.Balance)
	require.NotEmpty(t, doc.Notices)
	assert.Equal(t, "Claim Complete.", doc.Notices[len(doc.Notices)-1].Message)
}

func TestRunClaimSwitchesChain(t *testing.T) {
	ctx := context.Background()
	mainnet := wallettest.NewBackend(1, permit2.ERC20ABI, permit2.Permit2ABI)
	local := newChainBackend()
	kp, err := wallet.NewKeyProvider(ctx, devKey, mainnet, local)
	require.NoError(t, err)

	orch := service.NewOrchestrator(kp, nil, service.OrchestratorOptions{})
	require.NoError(t, run(ctx, orch, kp, testLink(t), options{claim: true}, 0))

	assert.Len(t, local.SentTo(common.HexToAddress(permit2.Address)), 1)
	assert.Empty(t, mainnet.Sent)

	v := orch.View()
	assert.Equal(t, uint64(31337), v.ChainID)
	assert.Equal(t, "none", v.UI.Attributes["data-claim"])
	assert.Equal(t, "Please switch to network 31337", v.Notices[0].Message)
}
