// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，原子写入、路径校验
//   - xkeylock: 基于 key 的进程内互斥锁，支持 context 超时和非阻塞获取
package util
