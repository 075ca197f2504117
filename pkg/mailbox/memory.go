package mailbox

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore はプロセス内メモリにメールを保持するストア。
// 開発環境とテストで使用する。プロセスの終了とともに内容は失われる。
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]string
	pageSize int
}

// NewMemoryStore は空のMemoryStoreを生成する。
// pageSizeが0以下の場合はDefaultPageSizeを使う。
func NewMemoryStore(pageSize int) *MemoryStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MemoryStore{
		records:  make(map[string]string),
		pageSize: pageSize,
	}
}

// Put はkeyにvalueを保存する。
func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = value
	return nil
}

// Get はkeyの値を返す。
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	return v, ok, nil
}

// ListPage はキーを辞書順に並べ、cursorより後ろのキーを返す。
// カーソルはページ最後のキー。
func (s *MemoryStore) ListPage(_ context.Context, cursor string) (Page, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		if k > cursor {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	if len(keys) <= s.pageSize {
		return Page{Keys: keys, Complete: true}, nil
	}
	keys = keys[:s.pageSize]
	return Page{Keys: keys, Cursor: keys[len(keys)-1]}, nil
}
