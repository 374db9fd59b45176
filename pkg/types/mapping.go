package types

import (
	"fmt"
	"net"
	"strconv"
)

// ============================================================================
//                              PortMapping - 端口映射
// ============================================================================

const (
	// MinPort 最小合法端口
	MinPort = 1
	// MaxPort 最大合法端口
	MaxPort = 65535
)

// PortMapping 端口映射规则
//
// 将外部 (Protocol, ExternalPort) 上的流量转发到内部 InternalClient:InternalPort。
// 不可变值对象，可直接用 == 比较。
type PortMapping struct {
	// Protocol 传输协议
	Protocol Protocol `json:"protocol" yaml:"protocol"`

	// RemoteHost 远端主机，空字符串表示任意
	RemoteHost string `json:"remote_host,omitempty" yaml:"remote_host,omitempty"`

	// ExternalPort 外部端口
	ExternalPort int `json:"external_port" yaml:"external_port"`

	// InternalClient 内部客户端地址
	InternalClient string `json:"internal_client" yaml:"internal_client"`

	// InternalPort 内部端口
	InternalPort int `json:"internal_port" yaml:"internal_port"`

	// Description 描述
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewPortMapping 创建端口映射
func NewPortMapping(protocol Protocol, remoteHost string, externalPort int, internalClient string, internalPort int, description string) PortMapping {
	return PortMapping{
		Protocol:       protocol,
		RemoteHost:     remoteHost,
		ExternalPort:   externalPort,
		InternalClient: internalClient,
		InternalPort:   internalPort,
		Description:    description,
	}
}

// Validate 校验端口范围、协议和内部客户端
func (m PortMapping) Validate() error {
	if !m.Protocol.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidProtocol, int(m.Protocol))
	}
	if !ValidPort(m.ExternalPort) {
		return fmt.Errorf("external %w: %d", ErrInvalidPort, m.ExternalPort)
	}
	if !ValidPort(m.InternalPort) {
		return fmt.Errorf("internal %w: %d", ErrInvalidPort, m.InternalPort)
	}
	if m.InternalClient == "" {
		return ErrEmptyInternalClient
	}
	return nil
}

// Key 返回网关侧的映射标识 "TCP:8080"
//
// 网关只用 (协议, 外部端口) 识别映射，RemoteHost 不参与。
func (m PortMapping) Key() string {
	return m.Protocol.String() + ":" + strconv.Itoa(m.ExternalPort)
}

// String 返回可读表示
func (m PortMapping) String() string {
	remote := m.RemoteHost
	if remote == "" {
		remote = "*"
	}
	return fmt.Sprintf("%s %s:%d -> %s (%q)",
		m.Protocol, remote, m.ExternalPort,
		net.JoinHostPort(m.InternalClient, strconv.Itoa(m.InternalPort)),
		m.Description)
}

// ValidPort 端口是否在 1-65535 范围内
func ValidPort(port int) bool {
	return port >= MinPort && port <= MaxPort
}
