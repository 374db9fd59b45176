package gateway

import (
	"context"

	"go.uber.org/fx"

	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Device 已发现的网关设备
	Device gwif.Device

	// EnumConfig 枚举配置（可选）
	EnumConfig *EnumConfig `optional:"true"`

	// Metrics 指标（可选）
	Metrics *Metrics `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Client *Client
	Router gwif.Router
}

// ProvideClient 提供网关客户端
func ProvideClient(input ModuleInput) (ModuleOutput, error) {
	opts := []Option{WithMetrics(input.Metrics)}
	if input.EnumConfig != nil {
		opts = append(opts, WithEnumConfig(*input.EnumConfig))
	}

	client, err := New(input.Device, opts...)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Client: client, Router: client}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(ProvideClient),
		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 停止时断开客户端
func registerLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			client.Disconnect()
			return nil
		},
	})
}
