package portmapper

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-portmapper/config"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// Option Open 配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 配置（WithConfig 或 WithConfigFile）
	config     *config.Config
	configFile string

	// discoverer 替换按配置构建的发现链
	discoverer gwif.Discoverer

	// registerer 指标注册器，未设置且启用指标时创建独立 Registry
	registerer prometheus.Registerer

	// fxDebug 输出 fx 事件日志
	fxDebug bool

	// applyLog 是否把日志配置应用到全局 logger
	applyLog bool

	// 用户扩展
	userFxOptions []fx.Option
}

func defaultOptions() *options {
	return &options{applyLog: true}
}

// WithConfig 使用给定配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON/YAML 文件加载配置，之后应用 PORTMAPPER_* 环境变量
func WithConfigFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.New("config file path is empty")
		}
		o.configFile = path
		return nil
	}
}

// WithDiscoverer 使用自定义发现器，忽略配置中的协议开关
func WithDiscoverer(d gwif.Discoverer) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("discoverer is nil")
		}
		o.discoverer = d
		return nil
	}
}

// WithRegisterer 把客户端指标注册到 reg，隐含启用指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registerer is nil")
		}
		o.registerer = reg
		return nil
	}
}

// WithFxDebug 输出 fx 依赖注入事件
func WithFxDebug(enable bool) Option {
	return func(o *options) error {
		o.fxDebug = enable
		return nil
	}
}

// WithoutLogConfig 不修改全局日志设置（嵌入到已有日志体系时使用）
func WithoutLogConfig() Option {
	return func(o *options) error {
		o.applyLog = false
		return nil
	}
}

// WithFxOptions 追加 fx 选项，可用于 fx.Populate 或替换组件
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}

// resolveConfig 确定最终配置：显式配置 > 配置文件 > 默认值 + 环境变量
func (o *options) resolveConfig() (*config.Config, error) {
	if o.config != nil {
		return o.config, nil
	}
	if o.configFile != "" {
		return config.Load(o.configFile)
	}
	return config.Load("")
}
