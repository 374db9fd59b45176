package config

import (
	"errors"
	"time"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，提供更明确的语义。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题示例：
//   - 两种发现协议都被禁用 -> 启用 UPnP
//   - 超时或计数为非正数 -> 使用默认值
//   - 枚举参数为负 -> 置零
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}
	def := NewConfig()

	// 发现：至少启用一种协议
	if !c.Discovery.EnableUPnP && !c.Discovery.EnableNATPMP {
		c.Discovery.EnableUPnP = true
	}
	if c.Discovery.Timeout <= 0 {
		c.Discovery.Timeout = def.Discovery.Timeout
	}

	up := &c.Discovery.UPnP
	if up.SearchTimeout < Duration(time.Second) {
		up.SearchTimeout = def.Discovery.UPnP.SearchTimeout
	}
	if up.NumSends <= 0 {
		up.NumSends = def.Discovery.UPnP.NumSends
	}
	if up.Parallelism <= 0 {
		up.Parallelism = def.Discovery.UPnP.Parallelism
	}
	if up.CacheSize <= 0 {
		up.CacheSize = def.Discovery.UPnP.CacheSize
	}
	if up.Lease < 0 {
		up.Lease = 0
	}

	pmp := &c.Discovery.NATPMP
	if pmp.Timeout <= 0 {
		pmp.Timeout = def.Discovery.NATPMP.Timeout
	}
	if pmp.Lifetime < Duration(time.Second) {
		pmp.Lifetime = def.Discovery.NATPMP.Lifetime
	}

	// 枚举：负值置零
	en := &c.Enumeration
	en.MaxRetries = max(en.MaxRetries, 0)
	en.MaxEntries = max(en.MaxEntries, 0)
	if en.RetryDelay < 0 {
		en.RetryDelay = 0
	}

	// 指标：补全路径
	if c.Metrics.Path == "" {
		c.Metrics.Path = def.Metrics.Path
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
