// Package gateway 实现网关端口映射客户端
//
// Client 持有一个已发现网关的 Device 句柄，对外提供统一的端口映射命令集：
//
//   - 添加 / 批量添加 / 删除端口映射
//   - 查询外部 IP、管理页面主机名与端口、友好名称、运行时长
//   - 枚举网关映射表
//   - 断开（终态，不可逆）
//
// # 错误
//
// 所有失败都以 *Fault 返回，携带失败的操作名和不透明的底层原因：
//
//	if err := client.AddMapping(ctx, m); err != nil {
//	    var f *gateway.Fault
//	    if errors.As(err, &f) && f.Op == gateway.OpAdd {
//	        // ...
//	    }
//	}
//
// 两个例外：枚举时设备返回的错误被视为映射表结束而非故障；
// 管理页面地址格式错误以专用的 OpParseLocation 故障返回。
//
// # 枚举
//
// 网关只提供"获取第 i 个条目"原语，没有条目总数。枚举从 0 开始逐个请求，
// 请求失败即视为表尾并返回已收集的结果；成功但条目为空时跳过并继续。
// 这意味着枚举中途的瞬时网络故障会静默截断结果，可通过
// EnumConfig.MaxRetries 对失败索引做有限次重试。
//
// # 并发
//
// Client 内部互斥：同一时刻最多一个设备请求在途，Disconnect 会等待在途操作完成。
package gateway
