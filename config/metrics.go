package config

import (
	"errors"
	"net"
	"strings"
)

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enable 是否收集指标
	Enable bool `json:"enable" yaml:"enable"`

	// Listen HTTP 暴露地址，为空时不启动 HTTP 服务
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`

	// Path 指标路径
	Path string `json:"path" yaml:"path"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enable: false,
		Path:   "/metrics",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return errors.New("metrics listen must be host:port")
		}
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.New("metrics path must start with /")
	}
	return nil
}
