// Package xbreaker 提供基于 sony/gobreaker/v2 的熔断器。
//
// 熔断器打开时 Do 直接返回 *BreakerError，不再调用下游。
// BreakerError 实现 Retryable() 返回 false，与 xretry 组合时不会被重试。
package xbreaker
