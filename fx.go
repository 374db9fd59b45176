package portmapper

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-portmapper/config"
	"github.com/dep2p/go-portmapper/internal/core/gateway"
	"github.com/dep2p/go-portmapper/internal/core/gateway/discovery"
	"github.com/dep2p/go-portmapper/internal/core/gateway/natpmp"
	"github.com/dep2p/go-portmapper/internal/core/gateway/upnp"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. 发现器：UPnP → NAT-PMP（按配置条件加载）
//  3. 发现链 → 设备（在构造期间完成发现）
//  4. 指标（条件加载）
//  5. 网关客户端
//
// ctx 只用于发现阶段。
func buildFxApp(ctx context.Context, cfg *config.Config, o *options, pm *Mapper) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	enumCfg := enumConfig(cfg.Enumeration)
	modules := []fx.Option{
		fx.Supply(cfg),
		fx.Supply(&enumCfg),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 发现器（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if o.discoverer == nil {
		if cfg.Discovery.EnableUPnP {
			modules = append(modules, fx.Provide(provideUPnPDiscoverer(cfg.Discovery.UPnP)))
		}
		if cfg.Discovery.EnableNATPMP {
			modules = append(modules, fx.Provide(provideNATPMPDiscoverer(cfg.Discovery.NATPMP)))
		}
		modules = append(modules, fx.Provide(provideChain))
	} else {
		modules = append(modules, fx.Provide(func() gwif.Discoverer { return o.discoverer }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 设备发现
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Provide(provideDevice(ctx, cfg.Discovery.Timeout.Duration())))

	// ════════════════════════════════════════════════════════════════════════
	// 4. 指标（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if reg := metricsRegisterer(cfg.Metrics, o); reg != nil {
		pm.registerer = reg
		modules = append(modules, fx.Provide(provideMetrics(reg)))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. 网关客户端
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, gateway.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 6. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 7. Mapper 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectComponents(pm)))

	// ════════════════════════════════════════════════════════════════════════
	// 8. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.WithLogger(fxEventLogger(o.fxDebug)))

	return fx.New(modules...), nil
}

// fxEventLogger 默认丢弃 fx 事件日志（避免干扰用户日志）
func fxEventLogger(debug bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if !debug {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		return &fxevent.ZapLogger{Logger: l.Named("fx")}
	}
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入
// ════════════════════════════════════════════════════════════════════════════

// injectParams Mapper 需要的组件
type injectParams struct {
	fx.In

	Client     *gateway.Client
	Device     gwif.Device
	Discoverer gwif.Discoverer
	UPnP       *upnp.Discoverer `optional:"true"`
}

func injectComponents(pm *Mapper) interface{} {
	return func(params injectParams) {
		pm.client = params.Client
		pm.device = params.Device
		pm.discoverer = params.Discoverer
		pm.upnp = params.UPnP
	}
}

// ════════════════════════════════════════════════════════════════════════════
// 发现器
// ════════════════════════════════════════════════════════════════════════════

func provideUPnPDiscoverer(cfg config.UPnPConfig) func() (*upnp.Discoverer, error) {
	return func() (*upnp.Discoverer, error) {
		return upnp.NewDiscoverer(upnp.Config{
			SearchTimeout: cfg.SearchTimeout.Duration(),
			NumSends:      cfg.NumSends,
			Parallelism:   cfg.Parallelism,
			Lease:         cfg.Lease.Duration(),
			CacheSize:     cfg.CacheSize,
			Fallback:      cfg.Fallback,
		})
	}
}

func provideNATPMPDiscoverer(cfg config.NATPMPConfig) func() (*natpmp.Discoverer, error) {
	return func() (*natpmp.Discoverer, error) {
		return natpmp.NewDiscoverer(natpmp.Config{
			Timeout:  cfg.Timeout.Duration(),
			Lifetime: cfg.Lifetime.Duration(),
		})
	}
}

// chainParams 已启用的发现器
type chainParams struct {
	fx.In

	UPnP   *upnp.Discoverer   `optional:"true"`
	NATPMP *natpmp.Discoverer `optional:"true"`
}

// provideChain 按 UPnP、NAT-PMP 的顺序组成发现链
func provideChain(p chainParams) (gwif.Discoverer, error) {
	var ds []gwif.Discoverer
	if p.UPnP != nil {
		ds = append(ds, p.UPnP)
	}
	if p.NATPMP != nil {
		ds = append(ds, p.NATPMP)
	}
	if len(ds) == 0 {
		return nil, ErrNoDiscoverer
	}
	return discovery.NewChain(ds...), nil
}

// provideDevice 在构造期间执行发现，返回第一个设备
func provideDevice(ctx context.Context, timeout time.Duration) func(gwif.Discoverer) (gwif.Device, error) {
	return func(d gwif.Discoverer) (gwif.Device, error) {
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		log.Debug("开始发现网关", "discoverer", d.Name(), "timeout", timeout)
		dev, err := discovery.First(dctx, d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoGateway, err)
		}
		log.Info("已发现网关",
			"name", dev.FriendlyName(),
			"location", dev.Location(),
			"discoverer", d.Name())
		return dev, nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
// 配置转换函数
// ════════════════════════════════════════════════════════════════════════════

func enumConfig(c config.EnumerationConfig) gateway.EnumConfig {
	return gateway.EnumConfig{
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay.Duration(),
		MaxEntries: c.MaxEntries,
	}
}

// metricsRegisterer 返回指标注册器，未启用指标时返回 nil
func metricsRegisterer(cfg config.MetricsConfig, o *options) prometheus.Registerer {
	if o.registerer != nil {
		return o.registerer
	}
	if cfg.Enable {
		return prometheus.NewRegistry()
	}
	return nil
}

func provideMetrics(reg prometheus.Registerer) func() (*gateway.Metrics, error) {
	return func() (*gateway.Metrics, error) {
		return gateway.NewMetrics(reg)
	}
}
