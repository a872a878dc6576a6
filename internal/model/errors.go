package model

import "github.com/cockroachdb/errors"

// 错误分类, 通过 errors.Is 判断
var (
	// ErrValidation 在发起任何网络请求之前发现的输入缺失
	ErrValidation = errors.New("validation error")
	// ErrRemote 后端响应中带有 error 字段
	ErrRemote = errors.New("remote error")
	// ErrTransport 网络或解析失败
	ErrTransport = errors.New("transport error")
	// ErrInFlight 同一个操作还有未完成的请求
	ErrInFlight = errors.New("action already in flight")
)

// Validation 构造一个面向用户的校验错误, Error() 即为原始消息
func Validation(msg string) error {
	return errors.Mark(errors.New(msg), ErrValidation)
}

func Remote(msg string) error {
	return errors.Mark(errors.New(msg), ErrRemote)
}

func Transport(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrTransport)
}

func InFlight(msg string) error {
	return errors.Mark(errors.Mark(errors.New(msg), ErrInFlight), ErrValidation)
}

// Kind 返回错误所属的分类名称, 用于日志字段
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInFlight):
		return "in_flight"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrRemote):
		return "remote"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
