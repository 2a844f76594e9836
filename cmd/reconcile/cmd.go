package reconcile

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"claim-portal/config"
	"claim-portal/pkg/database"
	"claim-portal/pkg/log"
	"claim-portal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "mark stored permits whose nonce is already spent on chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup(once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single round and exit")

	return cmd
}

func setup(once bool) error {
	conf := config.GetConfig()
	log.Init("reconcile.log", true)
	database.NewMysql()
	defer database.DisconnectMysql()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	defer stop()

	callers, closeCallers, err := service.DialCallers(ctx, conf.Chain.RpcUrls)
	if err != nil {
		return err
	}
	defer closeCallers()

	s := service.NewReconcileService(database.Mysql(), callers, common.HexToAddress(conf.Chain.Permit2), conf.Reconcile.Batch)
	if once {
		spent, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}
		log.Log.Info("reconcile done", zap.Int("spent", spent))
		return nil
	}

	s.Run(ctx, time.Duration(conf.Reconcile.IntervalS)*time.Second)
	return nil
}
