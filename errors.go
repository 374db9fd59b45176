package portmapper

import "errors"

// 公共错误定义
var (
	// ErrNoGateway 未发现可用网关
	ErrNoGateway = errors.New("no gateway found")

	// ErrNoDiscoverer 配置未启用任何发现协议
	ErrNoDiscoverer = errors.New("no gateway discoverer enabled")
)
