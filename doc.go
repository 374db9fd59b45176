// Package portmapper 提供网关端口映射客户端
//
// portmapper 发现局域网中的 Internet 网关（UPnP IGD 或 NAT-PMP），
// 并通过统一的客户端管理网关上的端口映射。
//
// # 快速开始
//
//	import "github.com/dep2p/go-portmapper"
//
//	pm, err := portmapper.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pm.Close()
//
//	router := pm.Router()
//	err = router.AddMapping(ctx, types.NewPortMapping(
//	    types.ProtocolTCP, "", 8080, "192.168.1.10", 8080, "web"))
//
//	mappings, err := router.Mappings(ctx)
//
// # 组装
//
// Open 用 fx 组装以下组件：
//
//	config ──► upnp / natpmp 发现器 ──► discovery.Chain ──► Device ──► gateway.Client
//
// 发现在 Open 期间完成，超时由 config.Discovery.Timeout 控制。
// 找不到网关时 Open 返回 ErrNoGateway。
//
// # 错误
//
// 客户端操作的失败统一包装为 *gateway.Fault，携带失败的操作名，
// 可用 errors.Is 判断 gateway.ErrDisconnected 等原因。
//
// # 文件组织
//
//   - portmapper.go: Mapper 入口与生命周期
//   - options.go: Open 选项
//   - fx.go: fx 应用组装
//   - logging.go: 日志配置应用
//   - errors.go: 公共错误
//   - version.go: 版本信息
package portmapper
