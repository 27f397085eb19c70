package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// EncodeName 把任意键编码为单个安全文件名
//
//	EncodeName("Connector:3_every_60") // -> "Connector%3A3_every_60"
//	EncodeName("a/b")                  // -> "a%2Fb"
//
// "." 和 ".." 整体编码，结果永远不是特殊目录名。
func EncodeName(key string) string {
	if key == "." || key == ".." {
		return strings.Repeat("%2E", len(key))
	}

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if isSafeByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}
	return b.String()
}

// DecodeName EncodeName 的逆操作
func DecodeName(name string) (string, error) {
	if !strings.Contains(name, "%") {
		return name, nil
	}
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		if name[i] != '%' {
			b.WriteByte(name[i])
			continue
		}
		if i+2 >= len(name) {
			return "", fmt.Errorf("truncated escape in %q: %w", name, ErrInvalidPath)
		}
		hi, ok1 := unhex(name[i+1])
		lo, ok2 := unhex(name[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid escape in %q: %w", name, ErrInvalidPath)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func isSafeByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '-'
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// SafeJoin 安全地拼接 base 与相对路径 name
//
//	SafeJoin("/var/lib/quota", "a.json")        // -> "/var/lib/quota/a.json", nil
//	SafeJoin("/var/lib/quota", "../etc/passwd") // -> "", ErrPathTraversal
//	SafeJoin("/var/lib/quota", "/etc/passwd")   // -> "", ErrInvalidPath
//
// 不解析符号链接。
func SafeJoin(base, name string) (string, error) {
	if base == "" || name == "" {
		return "", ErrEmptyPath
	}
	if strings.IndexByte(base, 0) >= 0 || strings.IndexByte(name, 0) >= 0 {
		return "", ErrNullByte
	}

	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be an absolute path: %w", ErrInvalidPath)
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("name must be relative: %w", ErrInvalidPath)
	}

	cleanName := filepath.Clean(name)
	if hasDotDotSegment(cleanName) {
		return "", ErrPathTraversal
	}

	joined := filepath.Join(cleanBase, cleanName)
	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil || hasDotDotSegment(rel) {
		return "", ErrPathEscaped
	}
	return joined, nil
}

// hasDotDotSegment 只把独立的 ".." 路径段视为穿越
func hasDotDotSegment(path string) bool {
	for seg := range strings.SplitSeq(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
