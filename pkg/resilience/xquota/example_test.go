package xquota_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xquota/pkg/resilience/xquota"
)

// githubConnector 声明连接器级别的限额
type githubConnector struct {
	store xquota.Store
}

func (c *githubConnector) ResolveLimits() []*xquota.Limit {
	return []*xquota.Limit{
		xquota.Allow(2).EveryMinute(),
		xquota.Allow(5000).EveryHour().WithThreshold(0.9),
	}
}

func (c *githubConnector) ResolveStore() xquota.Store { return c.store }

func Example_transport() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	// 多个进程共享 Redis 中的限额窗口（示例使用 miniredis）
	mr, err := miniredis.Run()
	if err != nil {
		log.Fatal(err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	store, err := xquota.NewRedisStore(rdb)
	if err != nil {
		log.Fatal(err)
	}
	guard, err := xquota.NewGuard()
	if err != nil {
		log.Fatal(err)
	}
	client := &http.Client{Transport: xquota.NewTransport(guard, &githubConnector{store: store})}

	for i := range 3 {
		resp, err := client.Get(srv.URL)
		if err != nil {
			var limitErr *xquota.LimitError
			if errors.As(err, &limitErr) {
				fmt.Printf("request %d: limited by %s\n", i+1, limitErr.Name)
			}
			continue
		}
		_ = resp.Body.Close()
		fmt.Printf("request %d: %d\n", i+1, resp.StatusCode)
	}
	// Output:
	// request 1: 200
	// request 2: 200
	// request 3: limited by githubConnector:2_every_60
}

func Example_manualPipeline() {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := xquota.NewMemoryStore(xquota.WithMemoryClock(clock))
	guard, err := xquota.NewGuard(xquota.WithClock(clock))
	if err != nil {
		log.Fatal(err)
	}
	conn := &githubConnector{store: store}
	ctx := context.Background()

	if _, err := guard.Before(ctx, conn); err != nil {
		log.Fatal(err)
	}
	// 发送请求后把响应交给 After
	resp := xquota.NewHTTPResponse(&http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"120"}},
		Body:       http.NoBody,
	})
	err = guard.After(ctx, conn, resp)
	if d, ok := xquota.RetryAfter(err); ok {
		fmt.Println("retry after", d)
	}
	// Output: retry after 2m0s
}

func ExampleConfigureLimits() {
	limits, err := xquota.ConfigureLimits(
		[]*xquota.Limit{xquota.Allow(10).EveryMinute(), xquota.Allow(10).EveryMinute()},
		"Connector", nil,
	)
	fmt.Println(len(limits), xquota.IsConfigError(err))
	// Output: 0 true
}
