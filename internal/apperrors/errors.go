package apperrors

import (
	"errors"
	"strings"
)

// Kind 描述引擎层面的错误分类，调用方据此决定记录级别与是否重试
type Kind string

const (
	// KindFetchFailure 翻译服务或常用词表请求失败；本轮流水线放弃，不做局部重试
	KindFetchFailure Kind = "fetch_failure"
	// KindProbeFailure 连通性探测失败；只驱动连接监控的退避重试
	KindProbeFailure Kind = "probe_failure"
	// KindConfigurationGap 配置不完整或页面被排除；引擎直接不启动
	KindConfigurationGap Kind = "configuration_gap"
	// KindMalformedOverride 用户词表/难度分组无法解析；初始化硬失败
	KindMalformedOverride Kind = "malformed_override"
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
)

type Error struct {
	Kind Kind
	Op   string
	// Message 面向用户与日志的安全文案
	Message string
	// Retryable 仅对 FetchFailure/ProbeFailure 有意义：上游返回 429/5xx 或超时
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}
	b.WriteString(msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindFetchFailure:
		return "translation fetch failed"
	case KindProbeFailure:
		return "translator service unreachable"
	case KindConfigurationGap:
		return "engine not started"
	case KindMalformedOverride:
		return "stored table is malformed"
	case KindInvalidInput:
		return "invalid input"
	case KindNotFound:
		return "not found"
	default:
		return "request failed"
	}
}

func New(kind Kind, op, message string, err error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Transient 标记一次可重试的上游失败（由外部触发重试，引擎内部不循环）
func Transient(op string, err error) error {
	return &Error{Kind: KindFetchFailure, Op: op, Retryable: true, Err: err}
}

func FetchFailure(op string, err error) error {
	return New(KindFetchFailure, op, "", err)
}

func ConfigurationGap(op, reason string) error {
	return New(KindConfigurationGap, op, reason, nil)
}

func MalformedOverride(op, table string, err error) error {
	return New(KindMalformedOverride, op, table+" is malformed", err)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is 判断错误链中是否存在指定分类
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Retryable
}
