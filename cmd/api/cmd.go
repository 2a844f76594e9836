package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"claim-portal/config"
	"claim-portal/pkg/database"
	"claim-portal/pkg/log"
	"claim-portal/router"
	"claim-portal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewCommand() *cobra.Command {
	var reconcile bool

	cmd := &cobra.Command{
		Use:   "api",
		Short: "serve the permit record store and claim preview api",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup(reconcile)
		},
	}
	cmd.Flags().BoolVar(&reconcile, "reconcile", false, "also run the reconcile loop in the background")

	return cmd
}

func setup(reconcile bool) error {
	conf := config.GetConfig()
	log.Init("api.log", true)
	database.NewMysql()
	defer database.DisconnectMysql()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	defer stop()

	if reconcile {
		callers, closeCallers, err := service.DialCallers(ctx, conf.Chain.RpcUrls)
		if err != nil {
			return err
		}
		defer closeCallers()

		s := service.NewReconcileService(database.Mysql(), callers, common.HexToAddress(conf.Chain.Permit2), conf.Reconcile.Batch)
		go s.Run(ctx, time.Duration(conf.Reconcile.IntervalS)*time.Second)
	}

	gin.DefaultWriter = log.Write
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.App.Port),
		Handler: router.NewRoute(database.Mysql()),
	}

	go func() {
		<-ctx.Done()
		log.Log.Info("shutting down api")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Log.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	log.Log.Info("api listening", zap.Int("port", conf.App.Port))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
