// Package natpmp 提供 NAT-PMP 网关设备
//
// NAT-PMP (NAT Port Mapping Protocol, RFC 6886) 是 Apple 提出的轻量级协议：
//   - 基于 UDP，只与默认网关通信
//   - 只能为请求方自身创建映射
//   - 没有映射表枚举原语
//
// 由于协议无法读取网关映射表，Device 在本地记录自己创建的映射，
// 并按索引提供给枚举器；过期条目以空条目返回。
package natpmp
