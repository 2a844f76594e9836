package claim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"claim-portal/config"
	"claim-portal/pkg/claim"
	"claim-portal/pkg/database"
	"claim-portal/pkg/log"
	"claim-portal/pkg/ui"
	"claim-portal/pkg/wallet"
	"claim-portal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type options struct {
	claim      bool
	invalidate bool
	details    bool
	watch      bool
	index      int
	output     string
}

func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "claim <link|claim>",
		Short: "open a claim link and optionally redeem or invalidate it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			return setup(cmd.OutOrStdout(), cmd.ErrOrStderr(), input, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.claim, "claim", false, "redeem the current permit")
	flags.BoolVar(&opts.invalidate, "invalidate", false, "invalidate the current permit nonce (owner only)")
	flags.BoolVar(&opts.details, "details", false, "show permit details")
	flags.BoolVar(&opts.watch, "watch", false, "follow wallet chain and account changes until interrupted")
	flags.IntVar(&opts.index, "index", 0, "which permit of the link is current")
	flags.StringVarP(&opts.output, "output", "o", "text", "text or yaml")

	return cmd
}

func setup(stdout, stderr io.Writer, input string, opts options) error {
	conf := config.GetConfig()
	log.Init("claim.log", false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	defer stop()

	var provider wallet.Provider
	var keyProvider *wallet.KeyProvider
	if conf.Wallet.PrivateKey != "" {
		kp, err := wallet.Dial(ctx, conf.Wallet.PrivateKey, conf.Chain.RpcUrls...)
		if err != nil {
			log.Log.Warn("wallet unavailable", zap.Error(err))
		} else {
			keyProvider, provider = kp, kp
		}
	}

	store, closeStore := newRecordStore(conf.RecordStore)
	defer closeStore()

	orch := service.NewOrchestrator(provider, store, service.OrchestratorOptions{
		Permit2:        common.HexToAddress(conf.Chain.Permit2),
		ReceiptTimeout: time.Duration(conf.Chain.ReceiptTimeoutS) * time.Second,
		Notifier: ui.NotifierFunc(func(n ui.Notice) {
			_, _ = fmt.Fprintf(stderr, "[%s] %s\n", n.Kind, n.Message)
		}),
	})

	err := run(ctx, orch, keyProvider, input, opts, conf.Chain.PollIntervalMs)
	if rerr := render(stdout, orch.View(), opts.output); err == nil {
		err = rerr
	}
	return err
}

func run(ctx context.Context, orch *service.Orchestrator, kp *wallet.KeyProvider, input string, opts options, pollMs int) error {
	if err := orch.Load(ctx, claim.Param(input)); err != nil {
		return err
	}

	if opts.index != 0 {
		if err := orch.Select(ctx, opts.index); err != nil {
			return err
		}
	}
	if opts.details {
		orch.ToggleDetails()
	}

	// gesture failures are already shown as notices
	if opts.invalidate {
		if err := orch.Invalidate(ctx); err != nil && !errors.Is(err, service.ErrInvalidateUnavailable) {
			return err
		}
	}
	if opts.claim {
		if err := orch.Claim(ctx); err != nil {
			return err
		}
	}

	if opts.watch && kp != nil {
		if pollMs <= 0 {
			pollMs = 4000
		}
		go kp.Watch(ctx, time.Duration(pollMs)*time.Millisecond)
		return orch.Run(ctx)
	}

	return nil
}

func newRecordStore(conf config.RecordStoreConfig) (service.RecordStore, func()) {
	switch strings.ToLower(conf.Kind) {
	case "mysql":
		database.NewMysql()
		return service.NewMysqlRecordStore(database.Mysql()), database.DisconnectMysql
	case "rest":
		return service.NewRestRecordStore(conf.RestUrl, nil), func() {}
	default:
		return nil, func() {}
	}
}

func render(w io.Writer, v service.PageView, output string) error {
	if output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, attr := range []string{ui.AttrClaim, ui.AttrMakeClaim, ui.AttrDetailsVisible} {
		if val, ok := v.UI.Attributes[attr]; ok {
			_, _ = fmt.Fprintf(w, "%s=%q\n", attr, val)
		}
	}
	if v.Account != "" {
		_, _ = fmt.Fprintf(w, "account: %s (chain %d)\n", v.Account, v.ChainID)
	}

	for i, p := range v.Claims {
		marker := " "
		if i == v.Current {
			marker = "*"
		}
		status := "open"
		if tx, ok := v.Redemptions[p.NonceKey()]; ok {
			status = strings.TrimSpace("redeemed " + tx)
		}
		_, _ = fmt.Fprintf(w, "%s [%d] nonce %s: %s of %s to %s on network %d, %s\n",
			marker, i, p.Permit.Nonce, p.TransferDetails.RequestedAmount, p.Permit.Permitted.Token,
			p.TransferDetails.To, p.NetworkId, status)
		if i == v.Current && v.UI.Attributes[ui.AttrDetailsVisible] == "true" {
			_, _ = fmt.Fprintf(w, "    owner %s, deadline %s, signature %s\n", p.Owner, p.Permit.Deadline, p.Signature)
		}
	}

	if v.Treasury != nil {
		_, _ = fmt.Fprintf(w, "treasury: balance %s, allowance %s\n", v.Treasury.Balance, v.Treasury.Allowance)
	}

	var controls []string
	if v.UI.ClaimVisible {
		controls = append(controls, fmt.Sprintf("claim(enabled=%t)", v.UI.ClaimEnabled))
	}
	if v.UI.InvalidateVisible {
		controls = append(controls, fmt.Sprintf("invalidate(enabled=%t)", v.UI.InvalidateEnabled))
	}
	if len(controls) > 0 {
		_, _ = fmt.Fprintf(w, "controls: %s\n", strings.Join(controls, " "))
	}

	return nil
}
