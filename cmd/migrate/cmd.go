package migrate

import (
	"claim-portal/dao"
	"claim-portal/pkg/database"
	"claim-portal/pkg/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the permits table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}
}

func setup() error {
	log.Init("migrate.log", true)
	database.NewMysql()
	defer database.DisconnectMysql()

	h := &dao.PermitHandler{}
	if err := database.Mysql().Table(h.TableName()).AutoMigrate(&dao.PermitModel{}); err != nil {
		log.Log.Error("migrate failed", zap.String("table", h.TableName()), zap.Error(err))
		return err
	}

	log.Log.Info("migrate done", zap.String("table", h.TableName()))
	return nil
}
