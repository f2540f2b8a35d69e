package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/ghostai/cache/local"
	cacheredis "github.com/kasuganosora/ghostai/cache/redis"
)

// Cache defines the KV and List operations rooms use for snapshots and
// event feeds.
type Cache interface {
	// KV
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// List
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub defines channel publish/subscribe operations.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// CacheConfig holds configuration for both Redis and LocalCache.
type CacheConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LocalGCInterval time.Duration
	LocalPubSubBuf  int
}

// IsNotFound reports whether err is a missing-key error from either backend.
func IsNotFound(err error) bool {
	return errors.Is(err, local.ErrNotFound) || errors.Is(err, cacheredis.ErrNotFound)
}

// Backend bundles a Cache and PubSub sharing one underlying store.
type Backend struct {
	Cache  Cache
	PubSub PubSub
	Kind   string // "redis" or "local"

	close func()
}

// Close releases the backend's connections or goroutines.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open returns a Redis backend if RedisAddr is set, otherwise an
// in-process one.
func Open(cfg CacheConfig) (*Backend, error) {
	if cfg.RedisAddr != "" {
		client, err := cacheredis.Dial(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Cache:  cacheredis.NewCache(client),
			PubSub: &redisPubSubAdapter{ps: cacheredis.NewPubSub(client)},
			Kind:   "redis",
			close:  func() { _ = client.Close() },
		}, nil
	}

	lc, err := local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
	if err != nil {
		return nil, err
	}
	return &Backend{
		Cache:  lc,
		PubSub: &localPubSubAdapter{ps: local.NewPubSub(cfg.LocalPubSubBuf)},
		Kind:   "local",
		close:  lc.Close,
	}, nil
}

// ---- adapters to bridge sub-package message types to cache.Message ----

type localPubSubAdapter struct {
	ps *local.LocalPubSub
}

func (a *localPubSubAdapter) Publish(ctx context.Context, channel, message string) error {
	return a.ps.Publish(ctx, channel, message)
}

func (a *localPubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	localCh, cancel, err := a.ps.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	return bridge(localCh, func(m *local.LocalMessage) *Message {
		return &Message{Channel: m.Channel, Payload: m.Payload}
	}), cancel, nil
}

type redisPubSubAdapter struct {
	ps *cacheredis.RedisPubSub
}

func (a *redisPubSubAdapter) Publish(ctx context.Context, channel, message string) error {
	return a.ps.Publish(ctx, channel, message)
}

func (a *redisPubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	redisCh, cancel, err := a.ps.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	return bridge(redisCh, func(m *cacheredis.RedisMessage) *Message {
		return &Message{Channel: m.Channel, Payload: m.Payload}
	}), cancel, nil
}

// bridge converts a backend message stream; out closes when in closes.
func bridge[T any](in <-chan T, conv func(T) *Message) <-chan *Message {
	out := make(chan *Message, cap(in))
	go func() {
		defer close(out)
		for msg := range in {
			out <- conv(msg)
		}
	}()
	return out
}
