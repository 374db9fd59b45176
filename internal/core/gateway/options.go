package gateway

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// EnumConfig 映射表枚举配置
//
// 零值即原始语义：失败立即视为表尾，不限制索引上限。
// 表尾本身也是一次失败，启用重试后每次枚举在表尾额外耗时 MaxRetries*RetryDelay。
type EnumConfig struct {
	// MaxRetries 某个索引请求失败后的额外重试次数
	MaxRetries int

	// RetryDelay 重试间隔
	RetryDelay time.Duration

	// MaxEntries 最多请求的索引数，0 表示不限
	MaxEntries int
}

// DefaultEnumConfig 返回默认枚举配置
func DefaultEnumConfig() EnumConfig {
	return EnumConfig{}
}

// Validate 验证配置
func (c EnumConfig) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max retries must not be negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay must not be negative")
	}
	if c.MaxEntries < 0 {
		return errors.New("max entries must not be negative")
	}
	return nil
}

// Option 客户端配置选项
type Option func(*Client) error

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		c.log = l
		return nil
	}
}

// WithClock 设置时钟（测试中注入 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(c *Client) error {
		if clk == nil {
			return errors.New("clock is nil")
		}
		c.clock = clk
		return nil
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *Metrics) Option {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithEnumConfig 设置枚举配置
func WithEnumConfig(cfg EnumConfig) Option {
	return func(c *Client) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.enum = cfg
		return nil
	}
}
