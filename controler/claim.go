package controler

import (
	"claim-portal/pkg/types"
	"claim-portal/pkg/utils"
	"claim-portal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ClaimController struct {
	permitS *service.PermitService
}

func NewClaimController(db *gorm.DB) *ClaimController {
	return &ClaimController{
		permitS: service.NewPermitService(db),
	}
}

// Decode previews a claim link the way the claim page would read it.
func (c *ClaimController) Decode(ctx *gin.Context) {
	var req types.DecodeClaimReq
	if err := ctx.ShouldBind(&req); err != nil {
		utils.FailResponse(ctx, err.Error())
		return
	}

	utils.SuccessResponse(ctx, c.permitS.Preview(ctx.Request.Context(), req.Claim))
}
