package portmapper

import (
	"fmt"
	"io"
	"os"

	"github.com/dep2p/go-portmapper/config"
	"github.com/dep2p/go-portmapper/internal/util/logger"
)

var log = logger.Logger("portmapper")

// applyLogConfig 把日志配置应用到全局 logger
//
// 配置了日志文件时返回文件句柄，由调用者在关闭时释放。
func applyLogConfig(cfg config.LogConfig) (io.Closer, error) {
	if cfg.Level != "" {
		logger.ApplyLevelSpec(cfg.Level)
	}
	if cfg.Format != "" {
		logger.SetFormat(logger.ParseFormat(cfg.Format))
	}
	if cfg.File == "" {
		return nil, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	return f, nil
}
