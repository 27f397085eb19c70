// Package xquota 提供出站 API 调用的客户端配额控制。
//
// # 概述
//
// 调用方（连接器、请求）声明一组限额模板，例如"每分钟 60 次"。每次请求时模板被
// 克隆为独立实例，从共享的 Store 同步窗口状态，命中后写回。服务端返回 429 时，
// 自动合成的 too_many_attempts_limit 会根据 Retry-After 标记为超限，
// 后续请求在窗口释放前被拦截。
//
// # 限额
//
//	xquota.Allow(60).EveryMinute()                  // <prefix>:60_every_60
//	xquota.Allow(1000).UntilMidnightTonight()       // <prefix>:1000_every_midnight
//	xquota.Allow(10).EverySeconds(5).Sleep()        // 超限时延迟而非报错
//	xquota.Allow(100).EveryHour().WithThreshold(.9) // 达到 90% 即视为超限
//	xquota.Custom(func(resp xquota.Response, l *xquota.Limit) {
//	    if resp.Header("X-Quota-Remaining") == "0" {
//	        l.MarkExceededFor(30)
//	    }
//	})
//
// 限额名称格式：显式名称为 "<prefix>:<name>"，否则为
// "<prefix>:<allow>_every_<窗口标识或秒数>"。前缀默认为调用方的短类型名。
//
// # 存储记录
//
// 每个限额在 Store 中存为 JSON：{"timestamp":<过期 unix 秒>,"hits":<命中数>}，
// 响应驱动型限额额外携带 "allow"。TTL 等于窗口剩余秒数。
//
// 可用的 Store：
//   - MemoryStore: 进程内 map，惰性过期
//   - CacheStore: ristretto，有容量上限
//   - RedisStore: 多进程共享
//   - EtcdStore: 多进程共享，基于租约过期
//   - FileStore: 每个限额一个文件，不依赖 TTL
//   - LRUStore: golang-lru，按最近访问淘汰
//   - MongoStore: 多进程共享，配合 TTL 索引
//
// 远端 Store 可以用 ResilientStore 包装，增加重试（xretry）和熔断（xbreaker）：
//
//	store, _ := xquota.NewResilientStore(redisStore)
//
// # 编排
//
// Guard.Before 在发送前检查，Guard.After 在收到响应后处理。Transport（HTTP）和
// UnaryClientInterceptor（gRPC）把两者接入请求管道：
//
//	guard, _ := xquota.NewGuard(xquota.WithLogger(logger), xquota.WithMeterProvider(mp))
//	client := &http.Client{Transport: xquota.NewTransport(guard, connector)}
//
// 触发限额时返回 *LimitError，Phase 区分请求是否已经发出：
//
//	if d, ok := xquota.RetryAfter(err); ok {
//	    queue.Release(job, d)
//	}
//
// # 一致性
//
// Store 只提供 get/set，并发请求对同一限额的 update→hit→save 之间没有锁，
// 最后写入者生效，高并发下可能少计命中数。客户端配额以尽力而为为目标。
//
// # 配置
//
// Config 可由 xconf 从 YAML/JSON 加载，ConfiguredLimits 直接作为 RateLimited 使用
// 并支持热更新：
//
//	quota:
//	  prefix: github
//	  limits:
//	    - allow: 5000
//	      window: hour
//	    - name: search
//	      allow: 30
//	      every: 1m
//	      sleep: true
package xquota
