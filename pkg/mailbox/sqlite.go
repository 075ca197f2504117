package mailbox

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/nao1215/mailgate/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLitePragmas はファイルのデータベースを開くときに付けるDSNのクエリ。
// WALにして読み取りを書き込みと並行させ、ロック待ちを5秒まで許す。
const SQLitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// SQLiteStore はSQLiteにメールを保存するストア。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// pageSize は1ページで返すキーの最大数。
	pageSize int
}

// OpenSQLite はdsnのSQLiteデータベースを開き、マイグレーションを適用する。
// 書き込みはプロセス内で1つの接続に直列化するため、同時のPutがロック競合で失敗することはない。
func OpenSQLite(ctx context.Context, dsn string, pageSize int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(ctx, db, pageSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("[Mailbox] SQLiteバックエンドを使用します: page_size=%d", store.pageSize)
	return store, nil
}

// NewSQLiteStore は開いているデータベース接続からストアを生成する。
// マイグレーションを適用してから返す。
func NewSQLiteStore(ctx context.Context, db *sql.DB, pageSize int) (*SQLiteStore, error) {
	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SQLiteStore{db: db, pageSize: pageSize}, nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put はkeyにvalueを保存する。既存の値は上書きする。
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mailbox (message_key, body) VALUES (?, ?)
		ON CONFLICT (message_key) DO UPDATE SET body = excluded.body, updated_at = datetime('now')
	`, key, value)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Get はkeyの値を返す。
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM mailbox WHERE message_key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return body, true, nil
}

// ListPage はキーの昇順でcursorより後ろのキーを返す。
// 終端の判定のため1件多く取得する。カーソルはページ最後のキー。
func (s *SQLiteStore) ListPage(ctx context.Context, cursor string) (Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT message_key FROM mailbox WHERE message_key > ? ORDER BY message_key LIMIT ?",
		cursor, s.pageSize+1)
	if err != nil {
		return Page{}, unavailable("list", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0, s.pageSize+1)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return Page{}, unavailable("list", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return Page{}, unavailable("list", err)
	}

	if len(keys) <= s.pageSize {
		return Page{Keys: keys, Complete: true}, nil
	}
	keys = keys[:s.pageSize]
	return Page{Keys: keys, Cursor: keys[len(keys)-1]}, nil
}
