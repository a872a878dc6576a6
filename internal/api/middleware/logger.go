package middleware

import (
	"time"

	"github.com/domain-cutover/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerMiddleware 每个请求结束后输出一条访问日志
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status_code", status),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("cost", time.Since(start)),
		}
		if id := c.GetString(sessionIDKey); id != "" {
			fields = append(fields, zap.String("session", id))
		}
		// 处理器记录的错误 (校验, 远端, 传输) 不改变页面的状态码, 只在日志中体现
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}
		if ce := logger.Logger.Check(levelFor(status, len(c.Errors) > 0), "HTTP request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// levelFor 5xx 记 Error, 4xx 或带业务错误的请求记 Warn, 其余记 Info
func levelFor(status int, hasErrors bool) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400, hasErrors:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
