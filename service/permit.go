package service

import (
	"context"
	"errors"
	"strings"

	"claim-portal/dao"
	"claim-portal/pkg/claim"
	"claim-portal/pkg/types"
	"claim-portal/pkg/ui"

	"gorm.io/gorm"
)

var ErrPermitExists = errors.New("permit nonce already registered")

// PermitService backs the record store endpoints of the api command.
type PermitService struct {
	db        *gorm.DB
	permitDao dao.IPermit
}

func NewPermitService(db *gorm.DB) *PermitService {
	return &PermitService{
		db:        db,
		permitDao: &dao.PermitHandler{},
	}
}

func (s *PermitService) List(req types.ListPermitReq) (*types.ListPermitRsp, error) {
	var (
		res   []*dao.PermitModel
		count int64
	)
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.Table(s.permitDao.TableName()).Where("delete_at = 0")
		if req.Owner != "" {
			tx = tx.Where("owner = ?", strings.ToLower(req.Owner))
		}
		if req.Beneficiary != "" {
			tx = tx.Where("beneficiary = ?", strings.ToLower(req.Beneficiary))
		}

		if err := tx.Count(&count).Error; err != nil {
			return err
		}

		return tx.Order("id desc").
			Limit(int(req.PageSize)).
			Offset(int(req.Page) * int(req.PageSize)).
			Find(&res).Error
	}); err != nil {
		return nil, err
	}

	return &types.ListPermitRsp{
		CommonListRsp: types.CommonListRsp{
			Count:    count,
			Page:     uint64(req.Page),
			PageSize: uint8(req.PageSize),
		},
		List: res,
	}, nil
}

func (s *PermitService) Get(req types.GetPermitReq) (*types.GetPermitRsp, error) {
	list, err := s.permitDao.SelectByNonce(s.db, req.Nonce)
	if err != nil {
		return nil, err
	}

	return &types.GetPermitRsp{List: list}, nil
}

func (s *PermitService) Create(req types.CreatePermitReq) (*dao.PermitModel, error) {
	p := req.Permit
	if err := claim.Normalize(&p); err != nil {
		return nil, err
	}

	model := &dao.PermitModel{
		Nonce:       p.NonceKey(),
		Token:       strings.ToLower(p.Permit.Permitted.Token),
		Owner:       strings.ToLower(p.Owner),
		Beneficiary: strings.ToLower(p.TransferDetails.To),
		Amount:      p.TransferDetails.RequestedAmount,
		NetworkId:   p.NetworkId,
		Signature:   p.Signature,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		exists, err := s.permitDao.SelectByNonce(tx, model.Nonce)
		if err != nil {
			return err
		}
		if len(exists) > 0 {
			return ErrPermitExists
		}

		return s.permitDao.Create(tx, model)
	})
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (s *PermitService) UpdateTransaction(nonce string, req types.UpdatePermitTxReq) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.permitDao.UpdateTransaction(tx, nonce, strings.ToLower(req.Transaction))
	})
}

// Preview decodes a claim parameter and reports which of its permits are
// already redeemed. Decode failures are answered with the page notice.
func (s *PermitService) Preview(ctx context.Context, param string) *types.DecodeClaimRsp {
	claims, err := claim.Decode(claim.Param(param))
	if err != nil {
		kind, msg := ui.KindError, ui.MsgInvalidClaimData
		if errors.Is(err, claim.ErrNoClaimData) {
			kind, msg = ui.KindNotice, ui.MsgNoClaimData
		}
		return &types.DecodeClaimRsp{
			Claims:      claim.ClaimSet{},
			Redemptions: map[string]string{},
			Notices:     []ui.Notice{{Kind: kind, Message: msg}},
		}
	}

	index := LookupRedemptions(ctx, NewMysqlRecordStore(s.db), claims)
	rsp := &types.DecodeClaimRsp{
		Claims:      claims,
		Redemptions: index,
		Notices:     []ui.Notice{},
	}
	if len(claims) > 0 && index.Redeemed(claims[0].NonceKey()) {
		rsp.Notices = append(rsp.Notices, ui.Notice{Kind: ui.KindInfo, Message: ui.MsgAlreadyClaimed})
	}

	return rsp
}
