package types

import (
	"fmt"
	"strings"
)

// ============================================================================
//                              Protocol - 传输协议
// ============================================================================

// Protocol 端口映射的传输协议
//
// 零值为 UDP：无法识别的协议字符串一律回退到 UDP。
type Protocol int

const (
	// ProtocolUDP UDP 协议
	ProtocolUDP Protocol = iota
	// ProtocolTCP TCP 协议
	ProtocolTCP
)

// String 返回网关可识别的大写协议令牌（"TCP" / "UDP"）
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// Valid 是否为已定义的协议
func (p Protocol) Valid() bool {
	return p == ProtocolTCP || p == ProtocolUDP
}

// ParseProtocol 将网关返回的协议字符串转换为 Protocol
//
// 仅与 "TCP" 做大小写不敏感比较，其余任何值（包括 "UDP"、""）都是 UDP。
func ParseProtocol(s string) Protocol {
	if strings.EqualFold(s, "TCP") {
		return ProtocolTCP
	}
	return ProtocolUDP
}

// MarshalText 实现 encoding.TextMarshaler
func (p Protocol) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProtocol, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
//
// 配置和命令行输入要求显式的 tcp/udp，不做回退。
func (p *Protocol) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "TCP":
		*p = ProtocolTCP
	case "UDP":
		*p = ProtocolUDP
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProtocol, string(text))
	}
	return nil
}
