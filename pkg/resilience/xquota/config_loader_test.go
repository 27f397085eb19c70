package xquota

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xquota/pkg/config/xconf"
)

const quotaYAML = `
quota:
  prefix: billing-api
  limits:
    - allow: 3
      window: minute
    - name: daily
      allow: 1000
      every: 24h
      threshold: 0.9
`

func TestLoadConfig(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte(quotaYAML), xconf.FormatYAML)
	require.NoError(t, err)

	c, err := LoadConfig(cfg, "quota")
	require.NoError(t, err)
	assert.Equal(t, "billing-api", c.Prefix)
	assert.True(t, c.DetectionEnabled())
	require.Len(t, c.Limits, 2)
	assert.Equal(t, 24*time.Hour, c.Limits[1].Every)
	require.NotNil(t, c.Limits[1].Threshold)
	assert.InDelta(t, 0.9, *c.Limits[1].Threshold, 1e-9)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte(`{"quota":{"limits":[{"allow":1,"window":"fortnight"}]}}`), xconf.FormatJSON)
	require.NoError(t, err)

	_, err = LoadConfig(cfg, "quota")
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestConfiguredLimits_WithGuard(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte(quotaYAML), xconf.FormatYAML)
	require.NoError(t, err)

	clk := newFakeClock()
	store := NewMemoryStore(WithMemoryClock(clk.Now))
	cl, err := NewConfiguredLimits(cfg, "quota", store, WithConfiguredClock(clk.Now))
	require.NoError(t, err)
	assert.Equal(t, "billing-api", cl.LimitPrefix())
	assert.True(t, cl.DetectTooManyAttempts())
	assert.Same(t, Store(store), cl.ResolveStore())

	g := newTestGuard(t, clk)
	ctx := context.Background()
	for range 3 {
		_, err := send(ctx, g, cl, okResponse())
		require.NoError(t, err)
	}
	_, err = send(ctx, g, cl, okResponse())
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "billing-api:3_every_60", limitErr.Name)

	snap := store.Snapshot()
	assert.Contains(t, snap, "billing-api:daily")
	assert.Contains(t, snap, "billing-api:too_many_attempts_limit")
}

func TestConfiguredLimits_DetectionDisabled(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte(`
quota:
  detect_too_many_attempts: false
  limits:
    - allow: 1
      window: hour
`), xconf.FormatYAML)
	require.NoError(t, err)

	cl, err := NewConfiguredLimits(cfg, "quota", NewMemoryStore())
	require.NoError(t, err)
	assert.False(t, cl.DetectTooManyAttempts())
	// 未设置前缀时使用默认前缀
	assert.Equal(t, DefaultPrefix, cl.LimitPrefix())
	assert.Equal(t, DefaultPrefix, prefixFor(cl))
}

func TestConfiguredLimits_DefaultPrefixKeys(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte("quota:\n  limits:\n    - allow: 60\n      window: minute\n"), xconf.FormatYAML)
	require.NoError(t, err)
	store := NewMemoryStore()
	cl, err := NewConfiguredLimits(cfg, "quota", store)
	require.NoError(t, err)

	g, err := NewGuard()
	require.NoError(t, err)
	_, err = send(context.Background(), g, cl, okResponse())
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Contains(t, snap, "xquota:60_every_60")
	assert.Contains(t, snap, "xquota:"+TooManyAttemptsLimitName)
}

func TestNewConfiguredLimits_Errors(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte(quotaYAML), xconf.FormatYAML)
	require.NoError(t, err)

	_, err = NewConfiguredLimits(nil, "quota", NewMemoryStore())
	assert.Error(t, err)

	_, err = NewConfiguredLimits(cfg, "quota", nil)
	assert.ErrorIs(t, err, ErrNilStore)

	bad, err := xconf.NewFromBytes([]byte(`{"quota":{"limits":[{"allow":1}]}}`), xconf.FormatJSON)
	require.NoError(t, err)
	_, err = NewConfiguredLimits(bad, "quota", NewMemoryStore())
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestConfiguredLimits_ReloadFromBytes(t *testing.T) {
	cfg, err := xconf.NewFromBytes([]byte(quotaYAML), xconf.FormatYAML)
	require.NoError(t, err)
	cl, err := NewConfiguredLimits(cfg, "quota", NewMemoryStore())
	require.NoError(t, err)

	// 字节配置不可重新读取，Reload 只重新解析现有内容
	assert.NoError(t, cl.Reload())
	assert.Equal(t, "billing-api", cl.Config().Prefix)
}

func writeQuotaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quota.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConfiguredLimits_Reload(t *testing.T) {
	path := writeQuotaFile(t, quotaYAML)
	cfg, err := xconf.New(path)
	require.NoError(t, err)
	cl, err := NewConfiguredLimits(cfg, "quota", NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("quota:\n  prefix: v2\n  limits:\n    - allow: 5\n      window: hour\n"), 0600))
	require.NoError(t, cl.Reload())
	assert.Equal(t, "v2", cl.Config().Prefix)
	require.Len(t, cl.ResolveLimits(), 1)

	// 无效配置不替换当前配置
	require.NoError(t, os.WriteFile(path, []byte("quota:\n  limits:\n    - allow: -1\n      window: hour\n"), 0600))
	assert.Error(t, cl.Reload())
	assert.Equal(t, "v2", cl.Config().Prefix)
}

func TestConfiguredLimits_Watch(t *testing.T) {
	path := writeQuotaFile(t, quotaYAML)
	cfg, err := xconf.New(path)
	require.NoError(t, err)
	cl, err := NewConfiguredLimits(cfg, "quota", NewMemoryStore())
	require.NoError(t, err)

	w, err := cl.Watch(context.Background(), xconf.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("quota:\n  prefix: watched\n  limits:\n    - allow: 2\n      window: minute\n"), 0600))
	assert.Eventually(t, func() bool {
		return cl.Config().Prefix == "watched"
	}, 5*time.Second, 20*time.Millisecond)
}
