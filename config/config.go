// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON / YAML 加载，再由 PORTMAPPER_* 环境变量覆盖
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Discovery.EnableNATPMP = true
//
//	// 从文件加载（按扩展名选择 JSON 或 YAML）并应用环境变量
//	cfg, err := config.Load("portmapper.yaml")
package config

// Config 是 portmapper 的完整配置结构
//
// 配置按照功能模块组织：
//   - Discovery: 网关发现（UPnP / NAT-PMP）
//   - Enumeration: 映射表枚举
//   - Log: 日志
//   - Metrics: Prometheus 指标
type Config struct {
	// Discovery 网关发现配置
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`

	// Enumeration 映射表枚举配置
	Enumeration EnumerationConfig `json:"enumeration" yaml:"enumeration"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，适用于大多数场景。
func NewConfig() *Config {
	return &Config{
		Discovery:   DefaultDiscoveryConfig(),
		Enumeration: DefaultEnumerationConfig(),
		Log:         DefaultLogConfig(),
		Metrics:     DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Enumeration.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}
