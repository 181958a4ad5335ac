package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tolelom/vivorun/core"
)

// RedisOptions configures a RedisDB.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Namespace string        // prepended to every key; lets several ledgers share one server
	Timeout   time.Duration // per-operation deadline; 0 → 5s
}

// RedisDB implements DB on a Redis server. Prefix scans use SCAN, so they are
// only consistent when no other client writes under the same namespace.
type RedisDB struct {
	client  *redis.Client
	ns      string
	timeout time.Duration
}

// NewRedisDB connects to Redis and verifies the connection with PING.
func NewRedisDB(opts RedisOptions) (*RedisDB, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	r := &RedisDB{client: client, ns: opts.Namespace, timeout: opts.Timeout}

	ctx, cancel := r.ctx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %q: %w", opts.Addr, err)
	}
	return r, nil
}

func (r *RedisDB) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisDB) key(k []byte) string {
	return r.ns + string(k)
}

func (r *RedisDB) Get(key []byte) ([]byte, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	return v, err
}

func (r *RedisDB) Set(key, value []byte) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisDB) Delete(key []byte) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Del(ctx, r.key(key)).Err()
}

// NewIterator collects the matching keys with SCAN, then loads values with
// MGET and returns them sorted, matching the LevelDB iteration order.
func (r *RedisDB) NewIterator(prefix []byte) Iterator {
	ctx, cancel := r.ctx()
	defer cancel()

	var keys []string
	it := r.client.Scan(ctx, 0, escapeGlob(r.key(prefix))+"*", 256).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}
	if err := it.Err(); err != nil {
		return errIterator(fmt.Errorf("redis scan: %w", err))
	}
	if len(keys) == 0 {
		return NewSliceIterator(nil)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return errIterator(fmt.Errorf("redis mget: %w", err))
	}
	pairs := make([]KV, 0, len(keys))
	for i, k := range keys {
		s, ok := vals[i].(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		pairs = append(pairs, KV{Key: []byte(strings.TrimPrefix(k, r.ns)), Value: []byte(s)})
	}
	sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].Key, pairs[j].Key) < 0 })
	return NewSliceIterator(pairs)
}

func (r *RedisDB) NewBatch() Batch {
	return &redisBatch{r: r}
}

func (r *RedisDB) Close() error {
	return r.client.Close()
}

type redisBatch struct {
	r   *RedisDB
	ops []batchOp
}

func (b *redisBatch) Set(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), value: append([]byte{}, value...)})
}

func (b *redisBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...)})
}

func (b *redisBatch) Reset() { b.ops = nil }

// Write applies the batch inside MULTI/EXEC.
func (b *redisBatch) Write() error {
	if len(b.ops) == 0 {
		return nil
	}
	ctx, cancel := b.r.ctx()
	defer cancel()
	_, err := b.r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range b.ops {
			if op.value == nil {
				pipe.Del(ctx, b.r.key(op.key))
			} else {
				pipe.Set(ctx, b.r.key(op.key), op.value, 0)
			}
		}
		return nil
	})
	return err
}

// escapeGlob escapes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
