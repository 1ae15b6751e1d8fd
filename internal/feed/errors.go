package feed

import (
	"errors"
	"fmt"
)

// ErrorKind 抓取路径上的错误分类。
type ErrorKind int

const (
	// KindTransient 暂时性网络错误（连接失败、5xx、429），可重试。
	KindTransient ErrorKind = iota
	// KindPermanent 确定性客户端错误（404 等 4xx），不可重试。
	KindPermanent
	// KindParse 订阅源内容格式错误。
	KindParse
	// KindTimeout 单次尝试或全局时限超时。
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindParse:
		return "parse"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error 带分类的抓取错误。所有越过抓取边界的错误都是这个类型。
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError 包装一个底层错误并赋予分类。
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf 提取错误的分类；非 *Error 返回 KindTransient 以外的保守默认。
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Retryable 判断错误是否可重试：暂时性错误和超时可以，其余不行。
func Retryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindTransient || kind == KindTimeout
}
