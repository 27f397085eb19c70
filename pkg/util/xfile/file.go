package xfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（gosec G301）
const DefaultDirPerm = 0750

// DefaultFilePerm 默认文件权限（gosec G306）
const DefaultFilePerm = 0600

// EnsureDir 确保目录 dir 存在
func EnsureDir(dir string, perm os.FileMode) error {
	if dir == "" {
		return ErrEmptyPath
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	return os.MkdirAll(dir, perm)
}

// WriteFileAtomic 原子地写入文件
// 数据先写入同目录临时文件并 fsync，再 rename 覆盖目标。
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("xfile: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName) //nolint:errcheck // 清理失败不影响返回的主错误
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // 已有写入错误
		return fmt.Errorf("xfile: write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // 已有同步错误
		return fmt.Errorf("xfile: sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("xfile: close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("xfile: chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("xfile: rename temp file: %w", err)
	}
	return nil
}

// ReadFileIfExists 读取文件，文件不存在时返回 (nil, false, nil)
func ReadFileIfExists(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // 路径由调用方经 SafeJoin 约束
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
