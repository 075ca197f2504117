package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix はRedis上でメールのキーに付ける既定の接頭辞。
const DefaultRedisPrefix = "mailbox:"

// RedisStore はRedisにメールを保存するストア。
// キー一覧はSCANのカーソルをそのまま使う。
type RedisStore struct {
	// client はRedisクライアント。
	client redis.UniversalClient
	// prefix はメールのキーに付ける接頭辞。
	prefix string
	// pageSize はSCANに渡すCOUNTのヒント。
	pageSize int
}

// OpenRedis はURL（例: "redis://localhost:6379/0"）のRedisに接続する。
func OpenRedis(ctx context.Context, url string, pageSize int) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("RedisのURLが不正: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
	}
	log.Printf("[Mailbox] Redisバックエンドを使用します: addr=%s, db=%d", opts.Addr, opts.DB)
	return NewRedisStore(client, DefaultRedisPrefix, pageSize), nil
}

// NewRedisStore はRedisクライアントからストアを生成する。
func NewRedisStore(client redis.UniversalClient, prefix string, pageSize int) *RedisStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RedisStore{client: client, prefix: prefix, pageSize: pageSize}
}

// Close はRedisクライアントを閉じる。
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Put はkeyにvalueを有効期限なしで保存する。
func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Get はkeyの値を返す。
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return v, true, nil
}

// ListPage はSCANで接頭辞に一致するキーを1ページ分返す。
// SCANは同じキーを複数回返すことがあるため、重複はListAllで取り除く。
func (s *RedisStore) ListPage(ctx context.Context, cursor string) (Page, error) {
	var start uint64
	if cursor != "" {
		c, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("カーソルが不正: %w", err)
		}
		start = c
	}

	found, next, err := s.client.Scan(ctx, start, escapeGlob(s.prefix)+"*", int64(s.pageSize)).Result()
	if err != nil {
		return Page{}, unavailable("list", err)
	}

	keys := make([]string, 0, len(found))
	for _, k := range found {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	if next == 0 {
		return Page{Keys: keys, Complete: true}, nil
	}
	return Page{Keys: keys, Cursor: strconv.FormatUint(next, 10)}, nil
}

// escapeGlob はSCANのMATCHパターンで特別な意味を持つ文字をエスケープする。
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
