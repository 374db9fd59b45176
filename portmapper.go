package portmapper

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-portmapper/config"
	"github.com/dep2p/go-portmapper/internal/core/gateway"
	"github.com/dep2p/go-portmapper/internal/core/gateway/upnp"
	"github.com/dep2p/go-portmapper/internal/util/logger"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// stopTimeout fx 应用停止超时
const stopTimeout = 10 * time.Second

// Mapper 已连接到网关的端口映射入口
//
// 由 Open 创建，持有一个网关客户端直到 Close。
type Mapper struct {
	mu     sync.Mutex
	closed bool

	config *config.Config
	app    *fx.App
	logOut io.Closer

	// 由 fx 注入
	client     *gateway.Client
	device     gwif.Device
	discoverer gwif.Discoverer
	upnp       *upnp.Discoverer

	registerer prometheus.Registerer
}

// Open 发现网关并创建客户端
//
// 未找到网关时返回包装了 ErrNoGateway 的错误。
func Open(ctx context.Context, opts ...Option) (*Mapper, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}

	pm := &Mapper{config: cfg}
	if o.applyLog {
		if pm.logOut, err = applyLogConfig(cfg.Log); err != nil {
			return nil, err
		}
	}

	app, err := buildFxApp(ctx, cfg, o, pm)
	if err != nil {
		pm.releaseLog()
		return nil, err
	}
	if err := app.Err(); err != nil {
		pm.releaseLog()
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		pm.releaseLog()
		return nil, fmt.Errorf("start: %w", err)
	}
	pm.app = app

	log.Debug("portmapper 已就绪", "client", pm.client.ID(), "discoverer", pm.discoverer.Name())
	return pm, nil
}

// Router 网关客户端
func (pm *Mapper) Router() gwif.Router {
	return pm.client
}

// Client 网关客户端的具体类型（暴露 EachMapping、LogRouterInfo 等）
func (pm *Mapper) Client() *gateway.Client {
	return pm.client
}

// Device 已发现的网关设备
func (pm *Mapper) Device() gwif.Device {
	return pm.device
}

// Discoverer 发现网关时使用的发现器
func (pm *Mapper) Discoverer() gwif.Discoverer {
	return pm.discoverer
}

// UPnP 配置启用 UPnP 时返回其发现器，用于启动 upnp.Monitor
func (pm *Mapper) UPnP() *upnp.Discoverer {
	return pm.upnp
}

// Config 生效的配置
func (pm *Mapper) Config() *config.Config {
	return pm.config
}

// Gatherer 指标采集器，未启用指标或注册器不可采集时返回 nil
func (pm *Mapper) Gatherer() prometheus.Gatherer {
	if g, ok := pm.registerer.(prometheus.Gatherer); ok {
		return g
	}
	return nil
}

// Close 断开客户端并停止 fx 应用，可重复调用
func (pm *Mapper) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.closed {
		return nil
	}
	pm.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var errs error
	if pm.app != nil {
		errs = multierr.Append(errs, pm.app.Stop(ctx))
	}
	errs = multierr.Append(errs, pm.releaseLog())

	log.Debug("portmapper 已关闭")
	return errs
}

// IsClosed 是否已关闭
func (pm *Mapper) IsClosed() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.closed
}

// releaseLog 恢复 stderr 输出并关闭日志文件
func (pm *Mapper) releaseLog() error {
	if pm.logOut == nil {
		return nil
	}
	logger.SetOutput(os.Stderr)
	err := pm.logOut.Close()
	pm.logOut = nil
	return err
}
