package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xquota/pkg/config/xconf"
	"github.com/omeyang/xquota/pkg/resilience/xquota"
)

// inspectConcurrency inspect 同时读取 Store 的限额数
const inspectConcurrency = 8

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// isCLIUsageError 识别 urfave/cli 产生的参数错误（未知 flag、未知命令等）
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"flag needs an argument",
		"invalid value",
		"No help topic for",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func createCommands(stdout io.Writer) []*cli.Command {
	return []*cli.Command{
		createValidateCommand(stdout),
		createInspectCommand(stdout),
		createResetCommand(stdout),
	}
}

// storeFlags inspect 和 reset 共用的 Store 参数
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "redis",
			Usage: "Redis 地址，如 127.0.0.1:6379",
		},
		&cli.StringFlag{
			Name:  "redis-key-prefix",
			Usage: "RedisStore 的键前缀",
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "FileStore 目录",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "覆盖配置中的限额前缀",
		},
	}
}

func createValidateCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "验证配置并列出解析后的限额名称",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdValidate(stdout, cmd.String("config"), cmd.String("path"), cmd.String("prefix"))
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prefix", Usage: "覆盖配置中的限额前缀"},
		},
	}
}

func createInspectCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "读取 Store 中各限额的当前窗口状态",
		Flags: storeFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			return cmdInspect(ctx, stdout, store, cmd.String("config"), cmd.String("path"), cmd.String("prefix"))
		},
	}
}

func createResetCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "重置指定限额的窗口",
		ArgsUsage: "<name>",
		Flags:     storeFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return newUsageError("reset requires exactly one limit name")
			}
			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			return cmdReset(ctx, stdout, store, cmd.String("config"), cmd.String("path"),
				cmd.String("prefix"), cmd.Args().First())
		},
	}
}

// openStore 根据 --redis / --dir 创建 Store，二者必须且只能指定一个
func openStore(cmd *cli.Command) (xquota.Store, func(), error) {
	addr, dir := cmd.String("redis"), cmd.String("dir")
	switch {
	case addr != "" && dir != "":
		return nil, nil, newUsageError("--redis and --dir are mutually exclusive")
	case addr != "":
		client := redis.NewClient(&redis.Options{Addr: addr})
		var opts []xquota.RedisOption
		if p := cmd.String("redis-key-prefix"); p != "" {
			opts = append(opts, xquota.WithRedisKeyPrefix(p))
		}
		store, err := xquota.NewRedisStore(client, opts...)
		if err != nil {
			return nil, nil, errors.Join(err, client.Close())
		}
		return store, func() { _ = client.Close() }, nil
	case dir != "":
		store, err := xquota.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, newUsageError("one of --redis or --dir is required")
	}
}

// prefixOverride 用 --prefix 覆盖配置中的前缀，其余行为与 ConfiguredLimits 相同
type prefixOverride struct {
	*xquota.ConfiguredLimits
	prefix string
}

func (p prefixOverride) LimitPrefix() string { return p.prefix }

// resolveLimits 加载配置，并按运行时 Guard 相同的规则展开为最终的限额实例
// （前缀、too_many_attempts_limit），保证读写的键与运行时一致。
func resolveLimits(configPath, path, prefix string, store xquota.Store) ([]*xquota.Limit, error) {
	if configPath == "" {
		return nil, newUsageError("--config is required")
	}
	cfg, err := xconf.New(configPath)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = xquota.NewMemoryStore()
	}
	cl, err := xquota.NewConfiguredLimits(cfg, path, store)
	if err != nil {
		return nil, err
	}
	var rl xquota.RateLimited = cl
	if prefix != "" {
		rl = prefixOverride{ConfiguredLimits: cl, prefix: prefix}
	}

	guard, err := xquota.NewGuard()
	if err != nil {
		return nil, err
	}
	return guard.Limits(rl)
}

func cmdValidate(w io.Writer, configPath, path, prefix string) error {
	limits, err := resolveLimits(configPath, path, prefix, nil)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tALLOW\tWINDOW\tTHRESHOLD\tSLEEP")
	for _, l := range limits {
		fmt.Fprintf(tw, "%s\t%d\t%ds\t%g\t%t\n",
			l.Name(), l.Allow(), l.ReleaseInSeconds(), l.Threshold(), l.ShouldSleep())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "ok: %d limits\n", len(limits))
	return nil
}

func cmdInspect(ctx context.Context, w io.Writer, store xquota.Store, configPath, path, prefix string) error {
	limits, err := resolveLimits(configPath, path, prefix, store)
	if err != nil {
		return err
	}

	// 各限额的记录互相独立，并发读取后按声明顺序输出
	reached := make([]bool, len(limits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inspectConcurrency)
	for i, l := range limits {
		g.Go(func() error {
			if err := l.Update(gctx, store); err != nil {
				return err
			}
			r, err := l.HasReachedLimit()
			reached[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHITS\tALLOW\tREMAINING\tREACHED")
	for i, l := range limits {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%ds\t%t\n",
			l.Name(), l.Hits(), l.Allow(), max(l.RemainingSeconds(), 0), reached[i])
	}
	return tw.Flush()
}

func cmdReset(ctx context.Context, w io.Writer, store xquota.Store, configPath, path, prefix, name string) error {
	limits, err := resolveLimits(configPath, path, prefix, store)
	if err != nil {
		return err
	}
	for _, l := range limits {
		if l.Name() != name {
			continue
		}
		l.ResetLimit()
		if err := l.SaveWithReset(ctx, store, 0); err != nil {
			return err
		}
		fmt.Fprintf(w, "reset %s\n", name)
		return nil
	}
	return newUsageError("unknown limit %q", name)
}

// setupSignalHandler 第一次信号取消 ctx，第二次强制退出
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
