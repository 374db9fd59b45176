package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	portmapper "github.com/dep2p/go-portmapper"
	"github.com/dep2p/go-portmapper/config"
	"github.com/dep2p/go-portmapper/internal/util/logger"
)

var log = logger.Logger("cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 全局参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：单次运行的覆盖
//   配置文件 + PORTMAPPER_* 环境变量：持久配置
//
// 优先级：命令行 > 环境变量 > 配置文件 > 默认值
//
// ═══════════════════════════════════════════════════════════════════════════

// globalFlags 全局标志
type globalFlags struct {
	configFile string
	timeout    time.Duration
	logLevel   string
	noColor    bool
	upnp       bool
	natpmp     bool
}

// cli 一次命令行运行的状态
type cli struct {
	flags globalFlags
	cfg   *config.Config
	out   *Output

	// extraOpts 追加到 portmapper.Open 的选项
	extraOpts []portmapper.Option
}

// newRootCmd 创建根命令
func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "portmapper",
		Short: "Manage port mappings on the local Internet gateway",
		Long: `portmapper discovers the LAN's Internet gateway (UPnP IGD or NAT-PMP)
and manages its port mapping table.

Examples:
  portmapper info                       Show gateway details
  portmapper list                       List port mappings
  portmapper add tcp 8080               Map external TCP 8080 to this host
  portmapper remove tcp 8080            Remove the mapping
  portmapper watch --metrics-addr :9100 Watch the gateway and export metrics`,
		Version:       portmapper.VersionInfo(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.out = NewOutput(cmd.OutOrStdout(), c.flags.noColor)
			return c.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.configFile, "config", "c", "", "Config file path (JSON or YAML)")
	pf.DurationVarP(&c.flags.timeout, "timeout", "t", 10*time.Second, "Timeout for each gateway operation")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "Log level spec, e.g. debug or gateway=debug,warn")
	pf.BoolVar(&c.flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&c.flags.upnp, "upnp", false, "Only use UPnP IGD (combine with --natpmp to try both)")
	pf.BoolVar(&c.flags.natpmp, "natpmp", false, "Only use NAT-PMP (combine with --upnp to try both)")

	root.AddCommand(
		newInfoCmd(c),
		newExternalIPCmd(c),
		newUptimeCmd(c),
		newListCmd(c),
		newAddCmd(c),
		newRemoveCmd(c),
		newClearCmd(c),
		newWatchCmd(c),
	)
	return root
}

// loadConfig 加载配置并应用命令行覆盖
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = c.flags.logLevel
	}
	if flags.Changed("timeout") {
		cfg.Discovery.Timeout = config.Duration(c.flags.timeout)
	}
	if c.flags.upnp || c.flags.natpmp {
		cfg.Discovery.EnableUPnP = c.flags.upnp
		cfg.Discovery.EnableNATPMP = c.flags.natpmp
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	return nil
}

// open 发现网关
func (c *cli) open(ctx context.Context, extra ...portmapper.Option) (*portmapper.Mapper, error) {
	opts := []portmapper.Option{portmapper.WithConfig(c.cfg)}
	opts = append(opts, c.extraOpts...)
	opts = append(opts, extra...)

	pm, err := portmapper.Open(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("discover gateway: %w", err)
	}
	log.Debug("已连接网关", "name", pm.Device().FriendlyName())
	return pm, nil
}

// withGateway 在超时内打开网关并执行 fn，结束后关闭
func (c *cli) withGateway(cmd *cobra.Command, fn func(ctx context.Context, pm *portmapper.Mapper) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.flags.timeout)
	defer cancel()

	pm, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer pm.Close()

	return fn(ctx, pm)
}

// execute 运行命令行，返回进程退出码
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, extra ...portmapper.Option) int {
	c := &cli{extraOpts: extra}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		NewOutput(stderr, c.flags.noColor).Error("%v", err)
		return 1
	}
	return 0
}
