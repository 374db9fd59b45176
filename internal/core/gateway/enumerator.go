package gateway

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-portmapper/internal/util/logger"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
	"github.com/dep2p/go-portmapper/pkg/types"
)

// ============================================================================
//                              Enumerator
// ============================================================================

// Enumerator 映射表的惰性枚举器
//
// 每次 Next 从设备拉取一个条目。设备请求失败即视为表尾：
// Next 返回 false，底层错误保存在 Err 中仅供排查，不作为故障上报。
// 请求严格串行，不做并发。
//
// Enumerator 不是并发安全的。
type Enumerator struct {
	dev   gwif.Device
	cfg   EnumConfig
	clock clock.Clock
	log   *slog.Logger

	index    int
	skipped  int
	done     bool
	err      error
	canceled bool
}

// NewEnumerator 创建枚举器
//
// 直接持有设备的调用方使用；通过 Client 访问时使用 Client.Mappings / Client.EachMapping。
func NewEnumerator(dev gwif.Device, cfg EnumConfig) *Enumerator {
	return newEnumerator(dev, cfg, clock.New(), logger.Logger("gateway"))
}

func newEnumerator(dev gwif.Device, cfg EnumConfig, clk clock.Clock, log *slog.Logger) *Enumerator {
	return &Enumerator{
		dev:   dev,
		cfg:   cfg,
		clock: clk,
		log:   log,
	}
}

// Next 返回下一个映射
//
// 返回 false 表示枚举结束（表尾、设备错误、达到 MaxEntries 或 ctx 取消）。
func (e *Enumerator) Next(ctx context.Context) (types.PortMapping, bool) {
	for !e.done {
		if err := ctx.Err(); err != nil {
			e.finish(err, true)
			break
		}
		if e.cfg.MaxEntries > 0 && e.index >= e.cfg.MaxEntries {
			e.log.Debug("达到枚举上限，停止获取映射", "max", e.cfg.MaxEntries)
			e.done = true
			break
		}

		e.log.Debug("获取端口映射", "index", e.index)
		entry, err := e.fetch(ctx, e.index)
		if err != nil {
			e.finish(err, ctx.Err() != nil)
			break
		}

		idx := e.index
		e.index++

		if entry == nil {
			e.skipped++
			e.log.Debug("网关返回空映射条目", "index", idx)
			continue
		}

		e.log.Debug("获取端口映射成功", "index", idx, "entry", entry.Description)
		return entryToMapping(entry), true
	}
	return types.PortMapping{}, false
}

// fetch 请求 index 处的条目，失败时按配置有限重试
func (e *Enumerator) fetch(ctx context.Context, index int) (*gwif.Entry, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := e.wait(ctx); err != nil {
				return nil, err
			}
			e.log.Debug("重试获取端口映射", "index", index, "attempt", attempt)
		}

		entry, err := e.dev.GenericPortMappingEntry(ctx, index)
		if err == nil {
			return entry, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (e *Enumerator) wait(ctx context.Context) error {
	if e.cfg.RetryDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(e.cfg.RetryDelay):
		return nil
	}
}

func (e *Enumerator) finish(err error, canceled bool) {
	e.done = true
	e.err = err
	e.canceled = canceled
	if canceled {
		e.log.Debug("映射枚举被取消", "index", e.index, "err", err)
		return
	}
	e.log.Debug("获取映射出错，停止获取更多映射", "index", e.index, "err", err)
}

// Index 下一个（或终止时失败的）请求索引
func (e *Enumerator) Index() int {
	return e.index
}

// Skipped 被跳过的空条目数
func (e *Enumerator) Skipped() int {
	return e.skipped
}

// Err 终止枚举的底层错误
//
// 正常表尾也会产生错误（设备以错误表示索引越界），因此它不代表故障。
func (e *Enumerator) Err() error {
	return e.err
}

// Canceled 枚举是否因 ctx 取消而终止
func (e *Enumerator) Canceled() bool {
	return e.canceled
}

// Done 枚举是否已结束
func (e *Enumerator) Done() bool {
	return e.done
}

// entryToMapping 将设备条目转换为 PortMapping
func entryToMapping(e *gwif.Entry) types.PortMapping {
	return types.PortMapping{
		Protocol:       types.ParseProtocol(e.Protocol),
		RemoteHost:     e.RemoteHost,
		ExternalPort:   e.ExternalPort,
		InternalClient: e.InternalClient,
		InternalPort:   e.InternalPort,
		Description:    e.Description,
	}
}
