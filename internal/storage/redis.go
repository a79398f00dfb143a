package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "tote:"

// RedisOptions configure RedisStorage.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key and to the change channel name.
	Prefix string
}

// RedisStorage keeps slots in redis and announces every write on a pub/sub
// channel so other instances sharing the same prefix can resynchronize.
type RedisStorage struct {
	client *goredis.Client
	prefix string
	id     string
}

// NewRedisStorage connects to redis and verifies the connection with a PING.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return newRedisStorage(client, opts.Prefix), nil
}

func newRedisStorage(client *goredis.Client, prefix string) *RedisStorage {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix, id: uuid.NewString()}
}

// Close releases the redis connection pool.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) key(slot Slot) string {
	return r.prefix + string(slot)
}

func (r *RedisStorage) channel() string {
	return r.prefix + "changes"
}

// Get implements Storage.
func (r *RedisStorage) Get(ctx context.Context, slot Slot) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(slot)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", slot, err)
	}
	return v, true, nil
}

// Set implements Storage.
func (r *RedisStorage) Set(ctx context.Context, slot Slot, value string) error {
	if err := r.client.Set(ctx, r.key(slot), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", slot, err)
	}
	return r.announce(ctx, slot)
}

// Remove implements Storage.
func (r *RedisStorage) Remove(ctx context.Context, slot Slot) error {
	if err := r.client.Del(ctx, r.key(slot)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", slot, err)
	}
	return r.announce(ctx, slot)
}

func (r *RedisStorage) announce(ctx context.Context, slot Slot) error {
	if err := r.client.Publish(ctx, r.channel(), encodeChange(r.id, slot)).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", slot, err)
	}
	return nil
}

// Watch subscribes to the change channel until ctx ends. Announcements made by
// this instance are skipped.
func (r *RedisStorage) Watch(ctx context.Context, notify func(Slot)) error {
	sub := r.client.Subscribe(ctx, r.channel())
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			writer, slot, ok := decodeChange(msg.Payload)
			if !ok || writer == r.id {
				continue
			}
			notify(slot)
		}
	}
}

func encodeChange(writer string, slot Slot) string {
	return writer + "|" + string(slot)
}

func decodeChange(payload string) (string, Slot, bool) {
	writer, slot, ok := strings.Cut(payload, "|")
	if !ok || writer == "" {
		return "", "", false
	}
	return writer, Slot(slot), true
}

var (
	_ Storage = (*RedisStorage)(nil)
	_ Watcher = (*RedisStorage)(nil)
)
