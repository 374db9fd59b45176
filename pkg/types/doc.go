// Package types 定义 go-portmapper 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - enums.go   - Protocol 传输协议枚举
//   - mapping.go - PortMapping 端口映射值对象
//   - info.go    - RouterInfo 网关描述信息（按键排序）
//   - errors.go  - 公共错误定义
package types
