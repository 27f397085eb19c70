package xquota

import (
	"context"
	"fmt"
	"math"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdKV EtcdStore 使用的 etcd 操作子集
// 方法签名与 clientv3.KV / clientv3.Lease 一致，*clientv3.Client 直接满足。
type etcdKV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
}

var _ etcdKV = (*clientv3.Client)(nil)

// revokeTimeout 写入失败后撤销租约的超时
const revokeTimeout = 5 * time.Second

// EtcdStore 基于 etcd 的共享存储
// 每次写入申请一个与窗口剩余时间等长的租约，窗口结束时记录随租约自动删除。
type EtcdStore struct {
	client    etcdKV
	keyPrefix string
}

// EtcdOption EtcdStore 选项
type EtcdOption func(*EtcdStore)

// WithEtcdKeyPrefix 设置 etcd 键前缀，例如 "/xquota/"
func WithEtcdKeyPrefix(prefix string) EtcdOption {
	return func(s *EtcdStore) {
		s.keyPrefix = prefix
	}
}

// NewEtcdStore 创建 etcd 存储
func NewEtcdStore(client *clientv3.Client, opts ...EtcdOption) (*EtcdStore, error) {
	if client == nil {
		return nil, ErrNilStore
	}
	return newEtcdStore(client, opts...), nil
}

func newEtcdStore(client etcdKV, opts ...EtcdOption) *EtcdStore {
	s := &EtcdStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 实现 Store
func (s *EtcdStore) Get(ctx context.Context, key string) (string, error) {
	resp, err := s.client.Get(ctx, s.keyPrefix+key)
	if err != nil {
		return "", fmt.Errorf("xquota: etcd get %q: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

// Set 实现 Store
// TTL 向上取整为秒，记录不会早于窗口结束被删除；ttl <= 0 时写入永久键。
// 覆盖写入后撤销旧记录的租约，避免每次写入遗留一个活跃租约。
func (s *EtcdStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		resp, err := s.client.Put(ctx, s.keyPrefix+key, value, clientv3.WithPrevKV())
		if err != nil {
			return fmt.Errorf("xquota: etcd put %q: %w", key, err)
		}
		s.revokePrevious(resp, 0)
		return nil
	}

	ttlSeconds := max(int64(math.Ceil(ttl.Seconds())), 1)
	lease, err := s.client.Grant(ctx, ttlSeconds)
	if err != nil {
		return fmt.Errorf("xquota: etcd grant lease: %w", err)
	}

	resp, err := s.client.Put(ctx, s.keyPrefix+key, value, clientv3.WithLease(lease.ID), clientv3.WithPrevKV())
	if err != nil {
		s.revoke(lease.ID)
		return fmt.Errorf("xquota: etcd put %q with ttl: %w", key, err)
	}
	s.revokePrevious(resp, lease.ID)
	return nil
}

// revokePrevious 撤销被覆盖记录持有的租约
// 旧租约此时只挂着已被覆盖的键，撤销不会删除新写入的值。
func (s *EtcdStore) revokePrevious(resp *clientv3.PutResponse, current clientv3.LeaseID) {
	if resp == nil || resp.PrevKv == nil {
		return
	}
	prev := clientv3.LeaseID(resp.PrevKv.Lease)
	if prev == clientv3.NoLease || prev == current {
		return
	}
	s.revoke(prev)
}

// revoke 撤销租约，使用独立 context 保证原 ctx 取消后仍能执行
func (s *EtcdStore) revoke(id clientv3.LeaseID) {
	ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
	defer cancel()
	_, _ = s.client.Revoke(ctx, id) //nolint:errcheck // 租约到期后也会自动回收
}

var _ Store = (*EtcdStore)(nil)
