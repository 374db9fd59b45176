package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	portmapper "github.com/dep2p/go-portmapper"
	"github.com/dep2p/go-portmapper/internal/core/gateway/upnp"
)

// ============================================================================
//                              watch
// ============================================================================

// watchState 上一次轮询的结果
type watchState struct {
	ip       string
	mappings int
}

func newWatchCmd(c *cli) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
		noMonitor   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the gateway and report changes until interrupted",
		Long: `Periodically read the external IP address and mapping table and print
what changed. With --metrics-addr the client metrics are served over HTTP.
When the gateway is a UPnP device, its ssdp:byebye announcement ends the watch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			return c.runWatch(cmd.Context(), interval, metricsAddr, !noMonitor)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Polling interval")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&noMonitor, "no-monitor", false, "Do not listen for SSDP gateway announcements")
	return cmd
}

func (c *cli) runWatch(ctx context.Context, interval time.Duration, metricsAddr string, monitor bool) error {
	if metricsAddr == "" {
		metricsAddr = c.cfg.Metrics.Listen
	}

	var extra []portmapper.Option
	if metricsAddr != "" {
		extra = append(extra, portmapper.WithRegisterer(prometheus.NewRegistry()))
	}

	openCtx, cancel := context.WithTimeout(ctx, c.flags.timeout)
	pm, err := c.open(openCtx, extra...)
	cancel()
	if err != nil {
		return err
	}
	defer pm.Close()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, c.cfg.Metrics.Path, pm.Gatherer())
		defer srv.Close()
		c.out.Info("metrics on http://%s%s", metricsAddr, c.cfg.Metrics.Path)
	}

	if monitor && pm.UPnP() != nil {
		if dev, ok := pm.Device().(*upnp.Device); ok {
			mon := watchGatewayLeave(pm.UPnP(), dev.USN(), func() {
				c.out.Warning("gateway %s left the network", pm.Device().FriendlyName())
				stop()
			})
			if err := mon.Start(); err != nil {
				c.out.Warning("ssdp monitor unavailable: %v", err)
			} else {
				defer mon.Close()
			}
		}
	}

	c.out.Info("watching %s every %s", pm.Device().FriendlyName(), interval)

	var prev watchState
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		prev = c.poll(ctx, pm, prev)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll 读取一次网关状态，输出与上次相比的变化
func (c *cli) poll(ctx context.Context, pm *portmapper.Mapper, prev watchState) watchState {
	pctx, cancel := context.WithTimeout(ctx, c.flags.timeout)
	defer cancel()

	cur := prev
	if ip, err := pm.Router().ExternalIPAddress(pctx); err != nil {
		if ctx.Err() == nil {
			c.out.Warning("external IP: %v", err)
		}
	} else {
		cur.ip = ip
	}
	if ms, err := pm.Router().Mappings(pctx); err == nil {
		cur.mappings = len(ms)
	}

	if cur != prev {
		c.out.Plain("%s  external-ip=%s  mappings=%d",
			time.Now().Format(time.RFC3339), cur.ip, cur.mappings)
	}
	return cur
}

// watchGatewayLeave 监听 usn 所属网关的下线通告
func watchGatewayLeave(disc *upnp.Discoverer, usn string, onLeave func()) *upnp.Monitor {
	mon := upnp.NewMonitor(disc)
	mon.OnBye = func(bye string) {
		if sameDevice(bye, usn) {
			onLeave()
		}
	}
	return mon
}

// sameDevice 两个 USN 是否属于同一设备（比较 "::" 之前的 UDN）
func sameDevice(a, b string) bool {
	return udn(a) != "" && udn(a) == udn(b)
}

func udn(usn string) string {
	if before, _, ok := strings.Cut(usn, "::"); ok {
		return before
	}
	return usn
}

// serveMetrics 在后台启动指标 HTTP 服务
func serveMetrics(addr, path string, g prometheus.Gatherer) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("指标服务退出", "addr", addr, "err", err)
		}
	}()
	return srv
}
