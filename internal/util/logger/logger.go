// Package logger 提供 go-portmapper 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别（子系统按点号分层继承）
//   - 环境变量配置（PORTMAPPER_LOG_LEVEL, PORTMAPPER_LOG_FORMAT）
//   - 运行时切换输出目标、格式和级别
//
// 使用示例:
//
//	package upnp
//
//	import "github.com/dep2p/go-portmapper/internal/util/logger"
//
//	var log = logger.Logger("gateway.upnp")
//
//	func foo() {
//	    log.Info("gateway discovered", "location", loc)
//	}
//
// 环境变量配置:
//
//	# 所有模块 info，UPnP 模块 debug
//	PORTMAPPER_LOG_LEVEL=gateway.upnp=debug,info
//
//	# 使用 JSON 格式输出
//	PORTMAPPER_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

func init() {
	globalFormat.Store(int32(ConfigFromEnv().Format))
}

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用会返回相同的 Logger 实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	handler := newHandler(subsystem, cfg.LevelForSubsystem(subsystem))

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(handler))
	if !loaded {
		handlers.Store(subsystem, handler)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
//
// 同时作用于以该子系统为前缀的下级子系统（"gateway" 影响 "gateway.upnp"）。
func SetLevel(subsystem string, level slog.Level) {
	handlers.Range(func(key, value any) bool {
		name := key.(string)
		if name == subsystem || (len(name) > len(subsystem) && name[:len(subsystem)+1] == subsystem+".") {
			value.(*subsystemHandler).SetLevel(level)
		}
		return true
	})
}

// SetGlobalLevel 设置所有子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
	ConfigFromEnv().DefaultLevel = level
}

// ApplyLevelSpec 按 "子系统=级别,...,默认级别" 调整已创建和之后创建的 Logger
func ApplyLevelSpec(spec string) {
	cfg := ConfigFromEnv()
	parseLevelConfig(cfg, spec)

	handlers.Range(func(key, value any) bool {
		value.(*subsystemHandler).SetLevel(cfg.LevelForSubsystem(key.(string)))
		return true
	})
}

// SetFormat 切换输出格式，对已创建的 Logger 立即生效
func SetFormat(format LogFormat) {
	globalFormat.Store(int32(format))
}

// SetOutput 设置全局日志输出目标
//
// 由于使用了 dynamicWriter，已创建的 Logger 也会重定向到新的 writer。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试，避免日志输出干扰测试结果。
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}
