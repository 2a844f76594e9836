package types

import (
	"claim-portal/dao"
	"claim-portal/pkg/claim"
	"claim-portal/pkg/ui"
)

type ListPermitReq struct {
	CommonListCond
	Owner       string `json:"owner" form:"owner"`
	Beneficiary string `json:"beneficiary" form:"beneficiary"`
}

type ListPermitRsp struct {
	CommonListRsp
	List []*dao.PermitModel `json:"list"`
}

type GetPermitReq struct {
	Nonce string `uri:"nonce" binding:"required,numeric"`
}

type GetPermitRsp struct {
	List []*dao.PermitModel `json:"list"`
}

// CreatePermitReq registers a signed permit before its link is handed out.
type CreatePermitReq struct {
	Permit claim.Permit `json:"permit"`
}

type UpdatePermitTxReq struct {
	Transaction string `json:"transaction" binding:"required,len=66,startswith=0x"`
}

type DecodeClaimReq struct {
	Claim string `json:"claim" form:"claim"`
}

type DecodeClaimRsp struct {
	Claims      claim.ClaimSet    `json:"claims"`
	Redemptions map[string]string `json:"redemptions"`
	Notices     []ui.Notice       `json:"notices"`
}
