// Package xfile 提供键值文件存储所需的文件系统工具。
//
// # 键名编码
//
// EncodeName 把任意字符串（如 "Connector:3_every_60"）编码为单个安全文件名：
// 字母、数字、'.'、'_'、'-' 原样保留，其余字节编码为 "%XX"。
// 编码是单射的，不同的键不会落到同一个文件。
//
// # 路径约束
//
// SafeJoin 确保结果路径始终位于 base 目录内，拒绝绝对路径、".." 路径段和空字节。
// 以 ".." 开头的合法文件名（如 "..config"）不会被误判。
//
// # 原子写入
//
// WriteFileAtomic 先写入同目录的临时文件再 rename，读者要么看到旧内容要么看到新内容。
// ReadFileIfExists 把"文件不存在"与读取错误区分开。
package xfile
