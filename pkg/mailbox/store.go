package mailbox

import (
	"context"
	"errors"
	"fmt"
)

// DefaultPageSize は1ページで返すキーの既定の最大数。
const DefaultPageSize = 1000

// ErrUnavailable はストアとの通信に失敗したことを表す。
// 呼び出し側でリトライせず、リクエストを失敗させる。
var ErrUnavailable = errors.New("メールボックスストアが利用できません")

// Page はキー一覧の1ページ分の結果。
type Page struct {
	// Keys はこのページに含まれるキー。順序は保証しない。
	Keys []string
	// Cursor は次のページを取得するためのカーソル。内容を解釈してはならない。
	Cursor string
	// Complete は一覧の終端に達したかどうか。
	Complete bool
}

// Store はメールボックスのキーバリューストア。
// キーは空でない文字列とする。同じキーへのPutは前の値を上書きする。
type Store interface {
	// Put はkeyにvalueを保存する。
	Put(ctx context.Context, key, value string) error
	// Get はkeyの値を返す。存在しない場合はfoundにfalseを返す。
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// ListPage はcursorの続きのキーを1ページ分返す。最初のページはcursorに空文字を渡す。
	ListPage(ctx context.Context, cursor string) (Page, error)
}

// ListAll はストアの全キーを返す。
// 前のページのカーソルをそのまま渡しながら、ストアが終端を通知するまでページを取得する。
// 同時に保持するページは常に1つだけで、重複したキーは1つにまとめる。
func ListAll(ctx context.Context, s Store) ([]string, error) {
	keys := []string{}
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := s.ListPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("キー一覧の取得に失敗: %w", err)
		}

		for _, k := range page.Keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}

		if page.Complete {
			return keys, nil
		}
		if page.Cursor == "" {
			return nil, errors.New("キー一覧が未完了なのにカーソルが空です")
		}
		cursor = page.Cursor
	}
}

// unavailable はバックエンドのエラーをErrUnavailableでラップする。
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
