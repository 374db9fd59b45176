package config

import "errors"

// EnumerationConfig 映射表枚举配置
//
// 默认值保持“请求失败即表尾”的语义：不重试，不限制索引。
type EnumerationConfig struct {
	// MaxRetries 某个索引请求失败后的额外重试次数
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay 重试间隔
	RetryDelay Duration `json:"retry_delay" yaml:"retry_delay"`

	// MaxEntries 最多请求的索引数，0 表示不限
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// DefaultEnumerationConfig 返回默认枚举配置
func DefaultEnumerationConfig() EnumerationConfig {
	return EnumerationConfig{}
}

// Validate 验证枚举配置
func (c EnumerationConfig) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("enumeration max retries must not be negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("enumeration retry delay must not be negative")
	}
	if c.MaxEntries < 0 {
		return errors.New("enumeration max entries must not be negative")
	}
	return nil
}
