// Package discovery 组合多个网关发现器
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/dep2p/go-portmapper/internal/util/logger"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

var log = logger.Logger("gateway.discovery")

// ErrNoDiscoverers 链中没有发现器
var ErrNoDiscoverers = errors.New("discovery: no discoverers configured")

// Chain 按顺序尝试多个发现器，返回第一个找到的设备集合
//
// 所有发现器都失败时返回合并后的错误。
type Chain struct {
	discoverers []gwif.Discoverer
}

// 确保实现接口
var _ gwif.Discoverer = (*Chain)(nil)

// NewChain 创建发现链，nil 发现器被忽略
func NewChain(ds ...gwif.Discoverer) *Chain {
	c := &Chain{}
	for _, d := range ds {
		if d != nil {
			c.discoverers = append(c.discoverers, d)
		}
	}
	return c
}

// Name 返回链中发现器名称，如 "upnp+nat-pmp"
func (c *Chain) Name() string {
	names := make([]string, len(c.discoverers))
	for i, d := range c.discoverers {
		names[i] = d.Name()
	}
	return strings.Join(names, "+")
}

// Len 发现器数量
func (c *Chain) Len() int {
	return len(c.discoverers)
}

// Discover 依次调用发现器
func (c *Chain) Discover(ctx context.Context) ([]gwif.Device, error) {
	if len(c.discoverers) == 0 {
		return nil, ErrNoDiscoverers
	}

	var errs error
	for _, d := range c.discoverers {
		if err := ctx.Err(); err != nil {
			return nil, multierr.Append(errs, err)
		}

		devices, err := d.Discover(ctx)
		if err != nil {
			log.Debug("发现器未找到网关", "discoverer", d.Name(), "err", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		if len(devices) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: no devices", d.Name()))
			continue
		}

		log.Debug("发现网关", "discoverer", d.Name(), "count", len(devices))
		return devices, nil
	}
	return nil, errs
}

// First 发现并返回第一个设备
func First(ctx context.Context, d gwif.Discoverer) (gwif.Device, error) {
	devices, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%s: no devices", d.Name())
	}
	return devices[0], nil
}
