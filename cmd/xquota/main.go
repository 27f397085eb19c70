// xquota 是客户端配额的命令行工具。
//
// 用法:
//
//	xquota [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件路径（YAML/JSON）
//	-p, --path     配置中限额所在的路径 (默认: quota)
//	-t, --timeout  命令超时时间 (默认: 10s)
//
// 命令:
//
//	validate       验证配置并列出解析后的限额名称
//	inspect        读取 Store 中各限额的当前窗口状态
//	reset <name>   重置指定限额的窗口
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（配置无效、Store 不可用）
//	2: 参数错误
//
// 示例:
//
//	xquota -c quota.yaml validate
//	xquota -c quota.yaml inspect --redis 127.0.0.1:6379
//	xquota -c quota.yaml inspect --dir /var/lib/xquota
//	xquota -c quota.yaml reset --dir /var/lib/xquota billing-api:60_every_60
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	defaultTimeout = 10 * time.Second
	defaultPath    = "quota"
)

// 版本信息（可通过 -ldflags 注入）
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	setupSignalHandler(cancel)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// createApp 创建 CLI 应用，输出写入 stdout
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xquota",
		Usage:     "客户端配额配置与状态工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "配置中限额所在的路径",
				Value:   defaultPath,
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "命令超时时间",
				Value:   defaultTimeout,
			},
		},
		Commands: createCommands(stdout),
		// 由 run() 统一映射退出码，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := createApp(stdout, stderr).Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
