package mail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// headerMessageID はMessage-IDヘッダーの正規化済みキー。
const headerMessageID = "message_id"

// ErrNoMessageID はMessage-IDヘッダーが無いか、単一の値でないことを表す。
var ErrNoMessageID = errors.New("message_idヘッダーが単一の文字列ではありません")

// HeaderValue はヘッダーの値。
// 同名のヘッダーが1つなら単一の文字列、複数なら文字列の配列となる。
type HeaderValue struct {
	values []string
	multi  bool
}

// SingleValue は単一の値を持つHeaderValueを返す。
func SingleValue(v string) HeaderValue {
	return HeaderValue{values: []string{v}}
}

// MultiValue は複数の値を持つHeaderValueを返す。
func MultiValue(vs ...string) HeaderValue {
	return HeaderValue{values: vs, multi: true}
}

// Single は単一の値の場合にその値を返す。
func (h HeaderValue) Single() (string, bool) {
	if h.multi || len(h.values) != 1 {
		return "", false
	}
	return h.values[0], true
}

// Values はすべての値を返す。
func (h HeaderValue) Values() []string {
	return h.values
}

// UnmarshalJSON は文字列または文字列の配列を受け付ける。
func (h *HeaderValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var vs []string
		if err := json.Unmarshal(data, &vs); err != nil {
			return fmt.Errorf("ヘッダー値の配列が不正: %w", err)
		}
		*h = MultiValue(vs...)
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("ヘッダー値が文字列ではありません: %w", err)
	}
	*h = SingleValue(v)
	return nil
}

// MarshalJSON は単一の値を文字列、複数の値を配列として出力する。
func (h HeaderValue) MarshalJSON() ([]byte, error) {
	if v, ok := h.Single(); ok {
		return json.Marshal(v)
	}
	if h.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.values)
}

// Headers は正規化済みのメールヘッダー。
type Headers map[string]HeaderValue

// MessageID はMessage-IDヘッダーの値を返す。
// ヘッダーが無い、配列である、空文字である場合はErrNoMessageIDを返す。
func (h Headers) MessageID() (string, error) {
	v, ok := h[headerMessageID]
	if !ok {
		return "", ErrNoMessageID
	}
	id, ok := v.Single()
	if !ok || id == "" {
		return "", ErrNoMessageID
	}
	return id, nil
}
