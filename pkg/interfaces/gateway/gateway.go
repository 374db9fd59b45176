// Package gateway 定义网关端口映射相关接口
//
// 网关模块分三层：
//   - Discoverer: 发现局域网中的网关设备，产出 Device
//   - Device:     单个已发现网关的传输句柄（UPnP IGD、NAT-PMP 等）
//   - Router:     构建在 Device 之上的统一端口映射命令集
package gateway

import (
	"context"
	"time"

	"github.com/dep2p/go-portmapper/pkg/types"
)

// ============================================================================
//                              Device 接口
// ============================================================================

// Device 已发现网关设备的传输句柄
//
// 所有网络方法都可能以不透明的传输错误失败，调用方不应解析该错误。
// 元数据方法在发现阶段已缓存，不产生网络往返。
type Device interface {
	// AddPortMapping 在网关映射表中添加或覆盖 (protocol, extPort) 条目
	//
	// protocol 为 "TCP" 或 "UDP"。
	AddPortMapping(ctx context.Context, extPort, intPort int, intClient, protocol, description string) error

	// DeletePortMapping 删除 (protocol, extPort) 条目
	DeletePortMapping(ctx context.Context, extPort int, protocol string) error

	// ExternalIPAddress 获取网关外部 IP
	ExternalIPAddress(ctx context.Context) (string, error)

	// GenericPortMappingEntry 获取映射表中第 index 个条目
	//
	// 索引处不存在条目时返回错误；返回 (nil, nil) 表示网关给出了空条目，
	// 这不代表映射表结束。
	GenericPortMappingEntry(ctx context.Context, index int) (*Entry, error)

	// FriendlyName 设备友好名称
	FriendlyName() string

	// Manufacturer 制造商
	Manufacturer() string

	// ModelDescription 型号描述
	ModelDescription() string

	// DeviceType 设备类型
	DeviceType() string

	// Location 设备描述文档地址
	Location() string

	// PresentationURL 设备管理页面地址（未解析的原始字符串）
	PresentationURL() string
}

// UptimeReporter 可报告自身运行时长的设备
//
// 可选接口，Device 实现了它才支持 Router.UpTime。
type UptimeReporter interface {
	Uptime(ctx context.Context) (time.Duration, error)
}

// Entry 网关返回的原始映射条目
type Entry struct {
	RemoteHost     string
	ExternalPort   int
	Protocol       string
	InternalPort   int
	InternalClient string
	Enabled        bool
	Description    string
	LeaseDuration  time.Duration
}

// ============================================================================
//                              Discoverer 接口
// ============================================================================

// Discoverer 网关发现器
type Discoverer interface {
	// Name 发现器名称，如 "upnp", "nat-pmp"
	Name() string

	// Discover 发现网关设备
	//
	// 未找到任何设备时返回错误。
	Discover(ctx context.Context) ([]Device, error)
}

// ============================================================================
//                              Router 接口
// ============================================================================

// Router 统一的网关端口映射命令集
//
// 所有失败都以 *Fault 返回（见 internal/core/gateway）。
// Disconnect 之后的所有调用都会立即失败。
type Router interface {
	// AddMapping 添加一条映射
	AddMapping(ctx context.Context, m types.PortMapping) error

	// AddMappings 按顺序添加，遇到第一个失败即停止，已添加的不回滚
	AddMappings(ctx context.Context, ms []types.PortMapping) error

	// RemoveMapping 删除一条映射
	RemoveMapping(ctx context.Context, m types.PortMapping) error

	// RemovePortMapping 按 (protocol, externalPort) 删除映射
	//
	// remoteHost 仅为接口对称而保留，不参与条目识别。
	RemovePortMapping(ctx context.Context, protocol types.Protocol, remoteHost string, externalPort int) error

	// ExternalIPAddress 获取外部 IP
	ExternalIPAddress(ctx context.Context) (string, error)

	// InternalHostName 管理页面地址中的主机名
	InternalHostName(ctx context.Context) (string, error)

	// InternalPort 管理页面地址中的端口
	InternalPort(ctx context.Context) (int, error)

	// Name 网关友好名称
	Name() (string, error)

	// Mappings 枚举网关上的全部映射
	Mappings(ctx context.Context) ([]types.PortMapping, error)

	// UpTime 网关运行时长
	UpTime(ctx context.Context) (time.Duration, error)

	// RouterInfo 网关描述信息（按键排序）
	RouterInfo() (types.RouterInfo, error)

	// Disconnect 断开，幂等且不可逆
	Disconnect()
}
