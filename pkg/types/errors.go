package types

import "errors"

// ============================================================================
//                              端口映射相关错误
// ============================================================================

var (
	// ErrInvalidProtocol 无效的协议
	ErrInvalidProtocol = errors.New("invalid protocol")

	// ErrInvalidPort 端口超出 1-65535 范围
	ErrInvalidPort = errors.New("port out of range 1-65535")

	// ErrEmptyInternalClient 内部客户端地址为空
	ErrEmptyInternalClient = errors.New("empty internal client")
)
