package utils

import (
	"net/http"

	"claim-portal/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CodeOk     = 0
	CodeFailed = 1
)

// ResponseFormat is the envelope of every api answer. Failures still use
// http 200; clients branch on Code.
type ResponseFormat struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func FailResponse(ctx *gin.Context, msg string) {
	log.Log.Info("request failed",
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.FullPath()),
		zap.String("msg", msg),
	)
	ctx.JSON(http.StatusOK, ResponseFormat{Code: CodeFailed, Msg: msg})
}

func SuccessResponse(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, ResponseFormat{Code: CodeOk, Msg: "ok", Data: data})
}
