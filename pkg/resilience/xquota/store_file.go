package xquota

import (
	"context"
	"fmt"
	"time"

	"github.com/omeyang/xquota/pkg/util/xfile"
	"github.com/omeyang/xquota/pkg/util/xkeylock"
)

// FileStore 每个限额一个文件的本地存储
//
// 不支持 TTL：过期窗口由 Limit.Update 根据记录中的 timestamp 丢弃，
// 下一次 Save 覆盖旧文件。读取失败降级为"不存在"，写入失败返回错误。
type FileStore struct {
	dir   string
	locks *xkeylock.Locker
}

// NewFileStore 创建文件存储，dir 必须是绝对路径，不存在时自动创建
func NewFileStore(dir string) (*FileStore, error) {
	if err := xfile.EnsureDir(dir, xfile.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("xquota: file store dir: %w", err)
	}
	locks, err := xkeylock.New()
	if err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, locks: locks}, nil
}

// Get 实现 Store
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", nil
	}
	data, ok, err := xfile.ReadFileIfExists(path)
	if err != nil || !ok {
		return "", nil
	}
	return string(data), nil
}

// Set 实现 Store，ttl 被忽略
func (s *FileStore) Set(ctx context.Context, key, value string, _ time.Duration) error {
	path, err := s.path(key)
	if err != nil {
		return fmt.Errorf("xquota: file store key %q: %w", key, err)
	}

	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := xfile.WriteFileAtomic(path, []byte(value), xfile.DefaultFilePerm); err != nil {
		return fmt.Errorf("xquota: file store write %q: %w", key, err)
	}
	return nil
}

// Dir 返回存储目录
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	return xfile.SafeJoin(s.dir, xfile.EncodeName(key)+".json")
}

var _ Store = (*FileStore)(nil)
