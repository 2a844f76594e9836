package controler

import (
	"claim-portal/pkg/types"
	"claim-portal/pkg/utils"
	"claim-portal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PermitController struct {
	permitS *service.PermitService
}

func NewPermitController(db *gorm.DB) *PermitController {
	return &PermitController{
		permitS: service.NewPermitService(db),
	}
}

func (c *PermitController) List(ctx *gin.Context) {
	var req types.ListPermitReq
	if err := ctx.ShouldBind(&req); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	res, err := c.permitS.List(req)
	if err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	utils.SuccessResponse(ctx, res)
}

func (c *PermitController) Get(ctx *gin.Context) {
	var req types.GetPermitReq
	if err := ctx.ShouldBindUri(&req); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	res, err := c.permitS.Get(req)
	if err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	utils.SuccessResponse(ctx, res)
}

func (c *PermitController) Create(ctx *gin.Context) {
	var req types.CreatePermitReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	res, err := c.permitS.Create(req)
	if err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	utils.SuccessResponse(ctx, res)
}

func (c *PermitController) UpdateTransaction(ctx *gin.Context) {
	var (
		uri types.GetPermitReq
		req types.UpdatePermitTxReq
	)
	if err := ctx.ShouldBindUri(&uri); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	if err := c.permitS.UpdateTransaction(uri.Nonce, req); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	utils.SuccessResponse(ctx, nil)
}
