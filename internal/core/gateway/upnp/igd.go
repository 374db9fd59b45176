package upnp

import (
	"context"
	"net/url"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/internetgateway1"
	"github.com/huin/goupnp/dcps/internetgateway2"
)

// ============================================================================
//                              IGD 客户端接口
// ============================================================================

// igdClient 抽象 IGD 连接服务
//
// goupnp 生成的四种连接客户端都直接满足该接口。
type igdClient interface {
	GetExternalIPAddressCtx(ctx context.Context) (string, error)
	AddPortMappingCtx(
		ctx context.Context,
		newRemoteHost string,
		newExternalPort uint16,
		newProtocol string,
		newInternalPort uint16,
		newInternalClient string,
		newEnabled bool,
		newPortMappingDescription string,
		newLeaseDuration uint32,
	) error
	DeletePortMappingCtx(
		ctx context.Context,
		newRemoteHost string,
		newExternalPort uint16,
		newProtocol string,
	) error

	// GetGenericPortMappingEntryCtx 按索引枚举端口映射条目，索引越界时返回错误
	GetGenericPortMappingEntryCtx(ctx context.Context, index uint16) (
		remoteHost string, externalPort uint16, protocol string,
		internalPort uint16, internalClient string, enabled bool,
		description string, leaseDuration uint32, err error,
	)

	GetStatusInfoCtx(ctx context.Context) (
		connectionStatus string, lastConnectionError string, uptime uint32, err error,
	)

	GetServiceClient() *goupnp.ServiceClient
}

var (
	_ igdClient = (*internetgateway1.WANIPConnection1)(nil)
	_ igdClient = (*internetgateway1.WANPPPConnection1)(nil)
	_ igdClient = (*internetgateway2.WANIPConnection2)(nil)
	_ igdClient = (*internetgateway2.WANPPPConnection1)(nil)
)

// ============================================================================
//                              服务类型
// ============================================================================

// service 一种 IGD 连接服务及其客户端工厂
type service struct {
	// target SSDP 搜索目标（服务 URN）
	target string
	// kind 日志与缓存中使用的服务描述
	kind string

	byURL    func(ctx context.Context, loc *url.URL) ([]igdClient, error)
	discover func(ctx context.Context) ([]igdClient, error)
}

// services 按优先级排序
//
// WANPPPConnection:1 在 IGDv1 和 IGDv2 中 URN 相同，需要通过不同工厂尝试创建。
var services = []service{
	{
		target: internetgateway2.URN_WANIPConnection_2,
		kind:   "IGDv2-WANIPConnection2",
		byURL: func(ctx context.Context, loc *url.URL) ([]igdClient, error) {
			cs, err := internetgateway2.NewWANIPConnection2ClientsByURLCtx(ctx, loc)
			return toIGD(cs), err
		},
		discover: func(ctx context.Context) ([]igdClient, error) {
			cs, _, err := internetgateway2.NewWANIPConnection2ClientsCtx(ctx)
			return toIGD(cs), err
		},
	},
	{
		target: internetgateway2.URN_WANPPPConnection_1,
		kind:   "IGDv2-WANPPPConnection1",
		byURL: func(ctx context.Context, loc *url.URL) ([]igdClient, error) {
			cs, err := internetgateway2.NewWANPPPConnection1ClientsByURLCtx(ctx, loc)
			return toIGD(cs), err
		},
		discover: func(ctx context.Context) ([]igdClient, error) {
			cs, _, err := internetgateway2.NewWANPPPConnection1ClientsCtx(ctx)
			return toIGD(cs), err
		},
	},
	{
		target: internetgateway1.URN_WANIPConnection_1,
		kind:   "IGDv1-WANIPConnection1",
		byURL: func(ctx context.Context, loc *url.URL) ([]igdClient, error) {
			cs, err := internetgateway1.NewWANIPConnection1ClientsByURLCtx(ctx, loc)
			return toIGD(cs), err
		},
		discover: func(ctx context.Context) ([]igdClient, error) {
			cs, _, err := internetgateway1.NewWANIPConnection1ClientsCtx(ctx)
			return toIGD(cs), err
		},
	},
	{
		target: internetgateway1.URN_WANPPPConnection_1,
		kind:   "IGDv1-WANPPPConnection1",
		byURL: func(ctx context.Context, loc *url.URL) ([]igdClient, error) {
			cs, err := internetgateway1.NewWANPPPConnection1ClientsByURLCtx(ctx, loc)
			return toIGD(cs), err
		},
		discover: func(ctx context.Context) ([]igdClient, error) {
			cs, _, err := internetgateway1.NewWANPPPConnection1ClientsCtx(ctx)
			return toIGD(cs), err
		},
	},
}

func toIGD[T igdClient](cs []T) []igdClient {
	out := make([]igdClient, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}
