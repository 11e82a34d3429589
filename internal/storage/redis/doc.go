// Package redis 提供基于 Redis 的共享缓存实现，供多个钱包进程共用最近的区块哈希。
package redis
