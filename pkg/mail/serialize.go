package mail

import (
	"encoding/json"
	"errors"
	"fmt"
)

// incomingHeaders はMessage-IDの取り出しに必要な部分だけを読むための構造。
// ヘッダー以外のフィールドの型が想定と違っても受信を拒否しない。
type incomingHeaders struct {
	Headers map[string]json.RawMessage `json:"headers"`
}

// MessageIDFromJSON はWebhookのJSONボディからMessage-IDを取り出す。
// JSONとして不正な場合はエラーを、Message-IDが単一の文字列でない場合はErrNoMessageIDを返す。
// JSONとしては正しいがheadersがオブジェクトでない場合もErrNoMessageIDとなる。
func MessageIDFromJSON(body []byte) (string, error) {
	var in incomingHeaders
	if err := json.Unmarshal(body, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", errors.Join(ErrNoMessageID, err)
		}
		return "", fmt.Errorf("WebhookボディのJSONデシリアライズに失敗: %w", err)
	}

	raw, ok := in.Headers[headerMessageID]
	if !ok {
		return "", ErrNoMessageID
	}
	var v HeaderValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", errors.Join(ErrNoMessageID, err)
	}
	return Headers{headerMessageID: v}.MessageID()
}

// DecodeMessage はWebhookのJSONボディをMessageにデシリアライズする。
func DecodeMessage(body []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("メールのデシリアライズに失敗: %w", err)
	}
	return &m, nil
}
