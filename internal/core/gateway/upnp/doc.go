// Package upnp 提供 UPnP IGD 网关设备
//
// UPnP IGD (Internet Gateway Device) 允许应用程序：
//   - 在 NAT 路由器上创建和删除端口映射
//   - 按索引枚举路由器的端口映射表
//   - 获取外部 IP 地址和 WAN 连接运行时长
//
// 支持的服务：
//   - IGDv2 WANIPConnection:2
//   - IGDv2 / IGDv1 WANPPPConnection:1
//   - IGDv1 WANIPConnection:1
//
// 发现流程：从过滤后的 LAN 地址并发发起 SSDP 搜索，
// 全部失败时回退到 goupnp 默认的组播发现。
package upnp
