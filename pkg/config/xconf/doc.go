// Package xconf 基于 koanf 加载 YAML/JSON 配置，并通过 fsnotify 监视文件变更。
//
// 从文件加载（格式由扩展名决定）：
//
//	cfg, err := xconf.New("/etc/app/quota.yaml")
//	var qc QuotaConfig
//	err = cfg.Unmarshal("quota", &qc)
//
// 从字节加载（如 K8s ConfigMap 内容）：
//
//	cfg, err := xconf.NewFromBytes(data, xconf.FormatYAML)
//
// 监视变更：Watch 在后台 goroutine 中运行，ctx 取消或调用 Stop 后退出，
// 多次写入在防抖时间内合并为一次 Reload。
//
//	w, err := xconf.Watch(ctx, cfg, func(c xconf.Config, err error) { ... })
//	defer w.Stop()
package xconf
