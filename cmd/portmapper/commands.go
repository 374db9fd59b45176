package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	portmapper "github.com/dep2p/go-portmapper"
	"github.com/dep2p/go-portmapper/internal/core/gateway"
)

// ============================================================================
//                              info
// ============================================================================

func newInfoCmd(c *cli) *cobra.Command {
	var logInfo bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show gateway details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				return runInfo(ctx, c, pm, logInfo)
			})
		},
	}
	cmd.Flags().BoolVar(&logInfo, "log", false, "Also write the router description to the log")
	return cmd
}

func runInfo(ctx context.Context, c *cli, pm *portmapper.Mapper, logInfo bool) error {
	client := pm.Client()

	info, err := client.RouterInfo()
	if logInfo {
		info, err = client.LogRouterInfo()
	}
	if err != nil {
		return err
	}

	name, _ := client.Name()
	c.out.Header(name)
	for _, e := range info.Entries() {
		c.out.KeyValue(e.Key, e.Value)
	}
	c.out.KeyValue("discoverer", pm.Discoverer().Name())

	if ip, err := client.ExternalIPAddress(ctx); err == nil {
		c.out.KeyValue("externalIP", ip)
	} else {
		c.out.Warning("external IP unavailable: %v", err)
	}

	host, herr := client.InternalHostName(ctx)
	port, perr := client.InternalPort(ctx)
	if herr == nil && perr == nil {
		c.out.KeyValue("internalHost", host)
		c.out.KeyValue("internalPort", strconv.Itoa(port))
	} else {
		c.out.Warning("presentation URL unusable: %v", multierr.Combine(herr, perr))
	}

	if up, err := client.UpTime(ctx); err == nil {
		c.out.KeyValue("uptime", up.String())
	} else if !errors.Is(err, gateway.ErrUnsupported) {
		c.out.Warning("uptime unavailable: %v", err)
	}
	return nil
}

// ============================================================================
//                              external-ip
// ============================================================================

func newExternalIPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "external-ip",
		Short: "Print the gateway's external IP address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				ip, err := pm.Router().ExternalIPAddress(ctx)
				if err != nil {
					return err
				}
				c.out.Plain("%s", ip)
				return nil
			})
		},
	}
}

// ============================================================================
//                              uptime
// ============================================================================

func newUptimeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "uptime",
		Short: "Print how long the gateway has been running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				up, err := pm.Router().UpTime(ctx)
				if err != nil {
					return err
				}
				c.out.Plain("%s", up)
				return nil
			})
		},
	}
}
