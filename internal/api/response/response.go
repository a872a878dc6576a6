package response

import (
	"net/http"

	"github.com/domain-cutover/internal/model"
	"github.com/gin-gonic/gin"
)

// Response 是 JSON 接口的统一外层
type Response struct {
	Code int    `json:"code"` // 0 表示成功
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// 业务状态码, 与 model 中的错误分类对应
const (
	SuccessCode    = 0
	ErrorCode      = 1
	ValidationCode = 1001
	RemoteCode     = 1002
	TransportCode  = 1003
)

// CodeOf 根据错误分类返回业务状态码
func CodeOf(err error) int {
	switch model.Kind(err) {
	case "":
		return SuccessCode
	case "validation", "in_flight":
		return ValidationCode
	case "remote":
		return RemoteCode
	case "transport":
		return TransportCode
	default:
		return ErrorCode
	}
}

func Ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: SuccessCode, Msg: "success", Data: data})
}

// Fail 输出错误外层; err 同时记录到 gin 上下文供日志中间件输出
func Fail(c *gin.Context, status int, msg string, err error) {
	code := ErrorCode
	if err != nil {
		c.Error(err).SetType(gin.ErrorTypePrivate)
		if k := CodeOf(err); k != SuccessCode {
			code = k
		}
	}
	c.AbortWithStatusJSON(status, Response{Code: code, Msg: msg})
}

// BadRequest 用于表单绑定失败 (HTTP 400)
func BadRequest(c *gin.Context, msg string, err error) {
	if msg == "" {
		msg = "请求参数错误"
	}
	Fail(c, http.StatusBadRequest, msg, err)
}

// NotFound 用于不存在的步骤等资源 (HTTP 404)
func NotFound(c *gin.Context, err error) {
	Fail(c, http.StatusNotFound, "资源未找到", err)
}
