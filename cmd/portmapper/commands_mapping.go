package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	portmapper "github.com/dep2p/go-portmapper"
	"github.com/dep2p/go-portmapper/pkg/types"
)

// defaultDescription add 的默认映射描述
const defaultDescription = "portmapper"

// localIPer 能报告发现时所用本地地址的设备
type localIPer interface {
	LocalIP() string
}

// parseProtocol 解析命令行协议参数，只接受 tcp/udp
func parseProtocol(s string) (types.Protocol, error) {
	var p types.Protocol
	if err := p.UnmarshalText([]byte(s)); err != nil {
		return p, err
	}
	return p, nil
}

// parsePort 解析端口参数
func parsePort(name, s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || !types.ValidPort(port) {
		return 0, fmt.Errorf("invalid %s %q: must be 1-65535", name, s)
	}
	return port, nil
}

// ============================================================================
//                              list
// ============================================================================

func newListCmd(c *cli) *cobra.Command {
	var (
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the gateway's port mappings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				ms, err := collectMappings(ctx, pm, limit)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(ms)
				}
				renderMappings(c, ms)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print mappings as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many mappings (0 = all)")
	return cmd
}

// collectMappings 枚举映射，limit > 0 时提前停止
func collectMappings(ctx context.Context, pm *portmapper.Mapper, limit int) ([]types.PortMapping, error) {
	if limit == 0 {
		return pm.Router().Mappings(ctx)
	}
	ms := make([]types.PortMapping, 0, limit)
	err := pm.Client().EachMapping(ctx, func(m types.PortMapping) bool {
		ms = append(ms, m)
		return len(ms) < limit
	})
	return ms, err
}

func renderMappings(c *cli, ms []types.PortMapping) {
	if len(ms) == 0 {
		c.out.Info("no port mappings")
		return
	}
	t := NewTable("PROTO", "EXTERNAL", "INTERNAL", "REMOTE", "DESCRIPTION")
	for _, m := range ms {
		remote := m.RemoteHost
		if remote == "" {
			remote = "*"
		}
		t.AddRow(
			m.Protocol.String(),
			strconv.Itoa(m.ExternalPort),
			fmt.Sprintf("%s:%d", m.InternalClient, m.InternalPort),
			remote,
			m.Description,
		)
	}
	t.Render(c.out.w)
	c.out.Plain("%d mapping(s)", t.Len())
}

// ============================================================================
//                              add
// ============================================================================

func newAddCmd(c *cli) *cobra.Command {
	var (
		client      string
		description string
		remoteHost  string
	)

	cmd := &cobra.Command{
		Use:   "add <tcp|udp> <external-port> [internal-port]",
		Short: "Add or replace a port mapping",
		Long: `Add a port mapping. The internal port defaults to the external port and
the internal client defaults to the local address used to reach the gateway.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := parseProtocol(args[0])
			if err != nil {
				return err
			}
			ext, err := parsePort("external port", args[1])
			if err != nil {
				return err
			}
			internal := ext
			if len(args) == 3 {
				if internal, err = parsePort("internal port", args[2]); err != nil {
					return err
				}
			}

			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				host := client
				if host == "" {
					if l, ok := pm.Device().(localIPer); ok {
						host = l.LocalIP()
					}
				}
				if host == "" {
					return errors.New("cannot determine local address, pass --client")
				}

				m := types.NewPortMapping(proto, remoteHost, ext, host, internal, description)
				if err := pm.Router().AddMapping(ctx, m); err != nil {
					return err
				}
				c.out.Success("added %s", m)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Internal client address (default: local address)")
	cmd.Flags().StringVarP(&description, "description", "d", defaultDescription, "Mapping description")
	cmd.Flags().StringVar(&remoteHost, "remote-host", "", "Remote host filter (empty = any)")
	return cmd
}

// ============================================================================
//                              remove
// ============================================================================

func newRemoveCmd(c *cli) *cobra.Command {
	var remoteHost string

	cmd := &cobra.Command{
		Use:     "remove <tcp|udp> <external-port>",
		Aliases: []string{"rm"},
		Short:   "Remove a port mapping",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := parseProtocol(args[0])
			if err != nil {
				return err
			}
			ext, err := parsePort("external port", args[1])
			if err != nil {
				return err
			}

			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				if err := pm.Router().RemovePortMapping(ctx, proto, remoteHost, ext); err != nil {
					return err
				}
				c.out.Success("removed %s:%d", proto, ext)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&remoteHost, "remote-host", "", "Remote host of the mapping")
	return cmd
}

// ============================================================================
//                              clear
// ============================================================================

func newClearCmd(c *cli) *cobra.Command {
	var (
		client      string
		description string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove several port mappings at once",
		Long: `Remove every mapping that matches the filters. Without --all at least one of
--client or --description is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && client == "" && description == "" {
				return errors.New("refusing to clear every mapping without --all")
			}
			return c.withGateway(cmd, func(ctx context.Context, pm *portmapper.Mapper) error {
				ms, err := pm.Router().Mappings(ctx)
				if err != nil {
					return err
				}
				removed, err := clearMappings(ctx, pm, filterMappings(ms, client, description))
				c.out.Info("removed %d mapping(s)", removed)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Only mappings to this internal client")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Only mappings with this description")
	cmd.Flags().BoolVar(&all, "all", false, "Remove all mappings")
	return cmd
}

// filterMappings 按内部客户端和描述过滤，空条件不过滤
func filterMappings(ms []types.PortMapping, client, description string) []types.PortMapping {
	var out []types.PortMapping
	for _, m := range ms {
		if client != "" && m.InternalClient != client {
			continue
		}
		if description != "" && m.Description != description {
			continue
		}
		out = append(out, m)
	}
	return out
}

// clearMappings 逐条删除，失败不中断，返回成功数和合并后的错误
func clearMappings(ctx context.Context, pm *portmapper.Mapper, ms []types.PortMapping) (int, error) {
	var (
		removed int
		errs    error
	)
	for _, m := range ms {
		if err := pm.Router().RemoveMapping(ctx, m); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", m.Key(), err))
			continue
		}
		removed++
	}
	return removed, errs
}
