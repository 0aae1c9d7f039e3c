package response

import (
	"net/http"

	"collectmarket/internal/errs"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess     = 0
	CodeParamError  = 400
	CodeNotFound    = 404
	CodeServerError = 500
)

// 业务错误码
const (
	CodeInvalidState      = 1001
	CodeInsufficientFunds = 1002
	CodeContention        = 1003 // 系统繁忙，可重试
	CodeInvariant         = 1004
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

// BizError 按错误分类映射业务错误码统一返回
// 只透出业务错误的用户可见信息，内部错误一律降级为通用提示
func BizError(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.KindInvalidInput:
		Error(c, CodeParamError, err.Error())
	case errs.KindInvalidState:
		Error(c, CodeInvalidState, err.Error())
	case errs.KindInsufficientFunds:
		Error(c, CodeInsufficientFunds, err.Error())
	case errs.KindNotFound:
		Error(c, CodeNotFound, err.Error())
	case errs.KindContention:
		Error(c, CodeContention, "系统繁忙，请稍后重试")
	case errs.KindInvariant:
		Error(c, CodeInvariant, "系统内部数据异常，请联系客服")
	default:
		Error(c, CodeServerError, "服务器内部错误")
	}
}
