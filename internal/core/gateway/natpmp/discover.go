package natpmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jackpal/gateway"
	natpmp "github.com/jackpal/go-nat-pmp"

	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// Config NAT-PMP 发现配置
type Config struct {
	// Timeout 单次请求超时
	Timeout time.Duration

	// Lifetime 新映射的租约，必须为正（0 表示删除）
	Lifetime time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout:  5 * time.Second,
		Lifetime: time.Hour,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Lifetime < time.Second {
		return errors.New("lifetime must be at least one second")
	}
	return nil
}

// Discoverer NAT-PMP 网关发现器
type Discoverer struct {
	cfg   Config
	clock clock.Clock

	// 以下字段便于测试替换
	gatewayIP func() (net.IP, error)
	localIP   func() (net.IP, error)
	newClient func(gw net.IP, timeout time.Duration) pmpClient
}

// 确保实现接口
var _ gwif.Discoverer = (*Discoverer)(nil)

// NewDiscoverer 创建 NAT-PMP 发现器
func NewDiscoverer(cfg Config) (*Discoverer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("natpmp: invalid config: %w", err)
	}
	return &Discoverer{
		cfg:       cfg,
		clock:     clock.New(),
		gatewayIP: gateway.DiscoverGateway,
		localIP:   gateway.DiscoverInterface,
		newClient: func(gw net.IP, timeout time.Duration) pmpClient {
			return natpmp.NewClientWithTimeout(gw, timeout)
		},
	}, nil
}

// Name 返回发现器名称
func (d *Discoverer) Name() string {
	return "nat-pmp"
}

// Discover 向默认网关发送外部地址请求，有响应即视为支持 NAT-PMP
func (d *Discoverer) Discover(ctx context.Context) ([]gwif.Device, error) {
	log.Debug("开始发现 NAT-PMP 网关")

	gw, err := d.gatewayIP()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGateway, err)
	}
	if gw.To4() == nil {
		return nil, fmt.Errorf("%w: gateway %s is not IPv4", ErrNoGateway, gw)
	}

	var local string
	if ip, err := d.localIP(); err == nil {
		local = ip.String()
	} else {
		log.Debug("获取本机地址失败", "err", err)
	}

	client := d.newClient(gw, d.cfg.Timeout)
	resp, err := do(ctx, client.GetExternalAddress)
	if err != nil {
		log.Debug("NAT-PMP 获取外部地址失败", "gateway", gw.String(), "err", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrNoGateway, err)
	}

	log.Info("发现 NAT-PMP 网关",
		"gateway", gw.String(),
		"externalIP", net.IP(resp.ExternalIPAddress[:]).String(),
		"localIP", local)

	return []gwif.Device{newDevice(client, gw, local, d.cfg.Lifetime, d.clock)}, nil
}
