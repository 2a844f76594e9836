package dao

import (
	"time"

	"claim-portal/pkg/utils"

	"gorm.io/gorm"
)

type IPermit interface {
	TableName() string
	Create(db *gorm.DB, model *PermitModel) error
	SelectByNonce(db *gorm.DB, nonce string) ([]*PermitModel, error)
	UpdateTransaction(db *gorm.DB, nonce, txHash string) error
	FindUnredeemed(db *gorm.DB, afterId uint64, limit int) ([]*PermitModel, error)
	MarkSpent(db *gorm.DB, ids []uint64) error
}

type PermitModel struct {
	Id          uint64  `json:"id,string" gorm:"primaryKey"`
	Nonce       string  `json:"nonce" gorm:"uniqueIndex;size:80"`
	Token       string  `json:"token" gorm:"size:42"`
	Owner       string  `json:"owner" gorm:"size:42"`
	Beneficiary string  `json:"beneficiary" gorm:"size:42"`
	Amount      string  `json:"amount" gorm:"size:80"`
	NetworkId   uint64  `json:"network_id"`
	Signature   string  `json:"signature" gorm:"size:200"`
	Transaction *string `json:"transaction" gorm:"size:66"`
	SpentAt     int64   `json:"spent_at"`
	CreateAt    int64   `json:"create_at"`
	UpdateAt    int64   `json:"update_at"`
	DeleteAt    int64   `json:"delete_at"`
}

type PermitHandler struct{}

func (h *PermitHandler) TableName() string {
	return "permits"
}

func (h *PermitHandler) Create(db *gorm.DB, model *PermitModel) error {
	var err error

	// init
	if model.Id == 0 {
		if model.Id, err = utils.NextID(); err != nil {
			return err
		}
	}

	model.CreateAt = time.Now().UnixMilli()
	model.UpdateAt = model.CreateAt

	return db.Table(h.TableName()).Create(model).Error
}

func (h *PermitHandler) SelectByNonce(db *gorm.DB, nonce string) ([]*PermitModel, error) {
	var datas []*PermitModel

	tx := db.Table(h.TableName()).Where("delete_at = 0 and nonce = ?", nonce).Limit(2).Find(&datas)

	return datas, tx.Error
}

// UpdateTransaction stores the redeeming tx hash, inserting a row for nonces
// that were never registered.
func (h *PermitHandler) UpdateTransaction(db *gorm.DB, nonce, txHash string) error {
	updates := map[string]interface{}{
		"transaction": txHash,
		"update_at":   time.Now().UnixMilli(),
	}

	tx := db.Table(h.TableName()).Where("delete_at = 0 and nonce = ?", nonce).UpdateColumns(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	return h.Create(db, &PermitModel{Nonce: nonce, Transaction: &txHash})
}

func (h *PermitHandler) FindUnredeemed(db *gorm.DB, afterId uint64, limit int) ([]*PermitModel, error) {
	var datas []*PermitModel

	tx := db.Table(h.TableName()).
		Where("delete_at = 0 and spent_at = 0 and `transaction` IS NULL and id > ?", afterId).
		Order("id asc").
		Limit(limit).
		Find(&datas)

	return datas, tx.Error
}

func (h *PermitHandler) MarkSpent(db *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	updates := map[string]interface{}{
		"spent_at":  now,
		"update_at": now,
	}

	return db.Table(h.TableName()).Where("id in ?", ids).UpdateColumns(updates).Error
}
