package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 定義快取操作介面
// Get/Set/Del 用於一般鍵值，SAdd/SRem/SIsMember 用於集合（例如停用使用者名單）
// 方便測試時替換 FakeCache 實作
// ttl <= 0 表示不設過期

type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SIsMember(ctx context.Context, key string, member interface{}) *redis.BoolCmd
	Close() error
}

type FakeCache struct {
	GetFn       func(ctx context.Context, key string) *redis.StringCmd
	SetFn       func(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	DelFn       func(ctx context.Context, keys ...string) *redis.IntCmd
	SAddFn      func(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRemFn      func(ctx context.Context, key string, members ...any) *redis.IntCmd
	SIsMemberFn func(ctx context.Context, key string, member any) *redis.BoolCmd
	CloseFn     func() error
}

// Get 執行 Fake 設定或 panic
func (f *FakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.GetFn != nil {
		return f.GetFn(ctx, key)
	}
	panic("unexpected Get")
}

// Set 執行 Fake 設定或 panic
func (f *FakeCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.SetFn != nil {
		return f.SetFn(ctx, key, value, expiration)
	}
	panic("unexpected Set")
}

// Del 執行 Fake 設定或 panic
func (f *FakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.DelFn != nil {
		return f.DelFn(ctx, keys...)
	}
	panic("unexpected Del")
}

// SAdd 執行 Fake 設定或 panic
func (f *FakeCache) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	if f.SAddFn != nil {
		return f.SAddFn(ctx, key, members...)
	}
	panic("unexpected SAdd")
}

// SRem 執行 Fake 設定或 panic
func (f *FakeCache) SRem(ctx context.Context, key string, members ...any) *redis.IntCmd {
	if f.SRemFn != nil {
		return f.SRemFn(ctx, key, members...)
	}
	panic("unexpected SRem")
}

// SIsMember 執行 Fake 設定或 panic
func (f *FakeCache) SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd {
	if f.SIsMemberFn != nil {
		return f.SIsMemberFn(ctx, key, member)
	}
	panic("unexpected SIsMember")
}

// Close 執行 Fake 設定或 no-op
func (f *FakeCache) Close() error {
	if f.CloseFn != nil {
		return f.CloseFn()
	}
	return nil
}
