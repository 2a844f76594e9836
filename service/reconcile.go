package service

import (
	"context"
	"time"

	"claim-portal/dao"
	"claim-portal/pkg/log"
	"claim-portal/pkg/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileService marks stored permits whose nonce was consumed on chain
// without the redeeming transaction ever being recorded.
type ReconcileService struct {
	db        *gorm.DB
	permitDao dao.IPermit
	callers   map[uint64]ContractCaller
	permit2   common.Address
	batch     int
}

// DialCallers connects to every rpc url and keys the clients by the chain id
// they report. The returned func closes them all.
func DialCallers(ctx context.Context, urls []string) (map[uint64]ContractCaller, func(), error) {
	callers := map[uint64]ContractCaller{}
	var clients []*ethclient.Client
	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	for _, url := range urls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		clients = append(clients, client)

		chainID, err := client.ChainID(ctx)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		callers[chainID.Uint64()] = client
		log.Log.Info("rpc connected", zap.String("url", url), zap.Uint64("chain_id", chainID.Uint64()))
	}

	return callers, closeAll, nil
}

func NewReconcileService(db *gorm.DB, callers map[uint64]ContractCaller, permit2Addr common.Address, batch int) *ReconcileService {
	if batch <= 0 {
		batch = 100
	}

	return &ReconcileService{
		db:        db,
		permitDao: &dao.PermitHandler{},
		callers:   callers,
		permit2:   permit2Addr,
		batch:     batch,
	}
}

// RunOnce walks every unredeemed permit and returns how many were marked spent.
func (s *ReconcileService) RunOnce(ctx context.Context) (int, error) {
	var (
		afterId  uint64
		spent    int
		unserved = mapset.NewSet[uint64]()
	)

	for {
		rows, err := s.permitDao.FindUnredeemed(s.db.WithContext(ctx), afterId, s.batch)
		if err != nil {
			return spent, err
		}

		var ids []uint64
		for _, row := range rows {
			afterId = row.Id

			caller, ok := s.callers[row.NetworkId]
			if !ok {
				unserved.Add(row.NetworkId)
				continue
			}

			nonce, err := utils.StringToUint256(row.Nonce)
			if err != nil {
				log.Log.Warn("reconcile: bad nonce", zap.Uint64("id", row.Id), zap.String("nonce", row.Nonce))
				continue
			}

			used, err := NonceUsed(ctx, caller, s.permit2, common.HexToAddress(row.Owner), nonce)
			if err != nil {
				return spent, err
			}
			if used {
				ids = append(ids, row.Id)
			}
		}

		if len(ids) > 0 {
			if err = s.permitDao.MarkSpent(s.db.WithContext(ctx), ids); err != nil {
				return spent, err
			}
			spent += len(ids)
		}

		if len(rows) < s.batch {
			break
		}
	}

	if unserved.Cardinality() > 0 {
		log.Log.Warn("reconcile: no rpc for networks", zap.Any("networks", unserved.ToSlice()))
	}

	return spent, nil
}

// Run reconciles every interval until ctx is done. Round errors are logged.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		spent, err := s.RunOnce(ctx)
		if err != nil {
			log.Log.Error("reconcile round failed", zap.Error(err))
		} else {
			log.Sugar.Infof("reconcile round done, spent: %d", spent)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
