package service

import (
	"context"

	"claim-portal/dao"
	"claim-portal/pkg/claim"
	"claim-portal/pkg/log"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecordStore remembers which permit nonces were redeemed and by which
// transaction.
type RecordStore interface {
	LookupTransaction(ctx context.Context, nonce string) (txHash string, found bool, err error)
	RecordTransaction(ctx context.Context, nonce, txHash string) error
}

// RedemptionIndex maps a nonce to its redeeming tx hash. A missing key means
// not redeemed, or not observed. An empty hash means the nonce was found
// spent on chain without a recorded transaction.
type RedemptionIndex map[string]string

func (r RedemptionIndex) Redeemed(nonce string) bool {
	_, ok := r[nonce]
	return ok
}

// LookupRedemptions asks the store once per distinct nonce. Store failures
// are logged and the claim is treated as not redeemed.
func LookupRedemptions(ctx context.Context, store RecordStore, claims claim.ClaimSet) RedemptionIndex {
	index := RedemptionIndex{}
	if store == nil {
		return index
	}

	seen := mapset.NewSet[string]()
	for i := range claims {
		nonce := claims[i].NonceKey()
		if !seen.Add(nonce) {
			continue
		}

		txHash, found, err := store.LookupTransaction(ctx, nonce)
		if err != nil {
			log.Log.Warn("record store lookup failed", zap.String("nonce", nonce), zap.Error(err))
			continue
		}
		if found {
			index[nonce] = txHash
		}
	}

	return index
}

// MysqlRecordStore reads the permits table directly.
type MysqlRecordStore struct {
	db        *gorm.DB
	permitDao dao.IPermit
}

func NewMysqlRecordStore(db *gorm.DB) *MysqlRecordStore {
	return &MysqlRecordStore{
		db:        db,
		permitDao: &dao.PermitHandler{},
	}
}

func (s *MysqlRecordStore) LookupTransaction(ctx context.Context, nonce string) (string, bool, error) {
	rows, err := s.permitDao.SelectByNonce(s.db.WithContext(ctx), nonce)
	if err != nil {
		return "", false, err
	}

	txHash, found := redemptionOf(rows)
	return txHash, found, nil
}

// redemptionOf reads the redemption out of the rows stored for one nonce.
// Only an unambiguous row counts. A row reconcile marked spent is redeemed
// even when its transaction is unknown.
func redemptionOf(rows []*dao.PermitModel) (string, bool) {
	if len(rows) != 1 {
		return "", false
	}

	row := rows[0]
	if row.Transaction != nil && *row.Transaction != "" {
		return *row.Transaction, true
	}
	return "", row.SpentAt != 0
}

func (s *MysqlRecordStore) RecordTransaction(ctx context.Context, nonce, txHash string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.permitDao.UpdateTransaction(tx, nonce, txHash)
	})
}
