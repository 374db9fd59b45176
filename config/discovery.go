package config

import (
	"errors"
	"fmt"
	"time"
)

// DiscoveryConfig 网关发现配置
//
// 启用的协议按 UPnP、NAT-PMP 的顺序尝试，使用第一个找到的网关。
type DiscoveryConfig struct {
	// Timeout 整个发现过程的超时
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// EnableUPnP 是否尝试 UPnP IGD
	EnableUPnP bool `json:"enable_upnp" yaml:"enable_upnp"`

	// EnableNATPMP 是否尝试 NAT-PMP
	EnableNATPMP bool `json:"enable_natpmp" yaml:"enable_natpmp"`

	// UPnP 配置
	UPnP UPnPConfig `json:"upnp" yaml:"upnp"`

	// NATPMP 配置
	NATPMP NATPMPConfig `json:"natpmp" yaml:"natpmp"`
}

// UPnPConfig UPnP 发现配置
type UPnPConfig struct {
	// SearchTimeout 单次 SSDP 搜索等待时间
	SearchTimeout Duration `json:"search_timeout" yaml:"search_timeout"`

	// NumSends 每次搜索发送的 M-SEARCH 数量
	NumSends int `json:"num_sends" yaml:"num_sends"`

	// Parallelism 并发搜索的本地地址数
	Parallelism int `json:"parallelism" yaml:"parallelism"`

	// Lease 新映射租约，0 表示永久
	Lease Duration `json:"lease" yaml:"lease"`

	// CacheSize 设备缓存容量
	CacheSize int `json:"cache_size" yaml:"cache_size"`

	// Fallback 候选地址全部失败时回退到默认组播发现
	Fallback bool `json:"fallback" yaml:"fallback"`
}

// NATPMPConfig NAT-PMP 配置
type NATPMPConfig struct {
	// Timeout 单次请求超时
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// Lifetime 新映射租约
	Lifetime Duration `json:"lifetime" yaml:"lifetime"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Timeout:      Duration(10 * time.Second),
		EnableUPnP:   true,
		EnableNATPMP: true,
		UPnP: UPnPConfig{
			SearchTimeout: Duration(3 * time.Second),
			NumSends:      3,
			Parallelism:   4,
			Lease:         0,
			CacheSize:     16,
			Fallback:      true,
		},
		NATPMP: NATPMPConfig{
			Timeout:  Duration(5 * time.Second),
			Lifetime: Duration(time.Hour),
		},
	}
}

// Validate 验证发现配置
func (c DiscoveryConfig) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("discovery timeout must be positive")
	}
	if !c.EnableUPnP && !c.EnableNATPMP {
		return errors.New("at least one of upnp and natpmp must be enabled")
	}
	if c.EnableUPnP {
		if err := c.UPnP.Validate(); err != nil {
			return fmt.Errorf("upnp: %w", err)
		}
	}
	if c.EnableNATPMP {
		if err := c.NATPMP.Validate(); err != nil {
			return fmt.Errorf("natpmp: %w", err)
		}
	}
	return nil
}

// Validate 验证 UPnP 配置
func (c UPnPConfig) Validate() error {
	if c.SearchTimeout < Duration(time.Second) {
		return errors.New("search timeout must be at least 1s")
	}
	if c.NumSends <= 0 {
		return errors.New("num sends must be positive")
	}
	if c.Parallelism <= 0 {
		return errors.New("parallelism must be positive")
	}
	if c.Lease < 0 {
		return errors.New("lease must not be negative")
	}
	if c.CacheSize <= 0 {
		return errors.New("cache size must be positive")
	}
	return nil
}

// Validate 验证 NAT-PMP 配置
func (c NATPMPConfig) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Lifetime < Duration(time.Second) {
		return errors.New("lifetime must be at least 1s")
	}
	return nil
}
