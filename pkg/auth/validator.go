package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized は認証に失敗したことを表す。
// 失敗理由（ヘッダー無し、シークレット不一致、署名不正など）は
// ラップされたエラーとしてログにのみ残し、呼び出し元には開示しない。
var ErrUnauthorized = errors.New("認証に失敗しました")

// Identity は認証に成功した主体を表す。
// 共有シークレット方式ではWebhookIdentity（空文字）、
// JWKS方式ではトークンのemailクレームとなる。
type Identity string

// WebhookIdentity はWebhook送信元を表す固定の主体。
const WebhookIdentity Identity = ""

// Validator はトークンを検証し、認証された主体を返す。
//
// tokenが空文字の場合は「認証情報が提示されなかった」ことを意味する。
// 失敗時に返すエラーは必ずerrors.Is(err, ErrUnauthorized)を満たす。
type Validator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}

// unauthorized はcauseをErrUnauthorizedでラップする。
func unauthorized(cause error) error {
	if cause == nil {
		return ErrUnauthorized
	}
	return &authError{cause: cause}
}

// authError は失敗理由を保持した認証エラー。
type authError struct {
	cause error
}

func (e *authError) Error() string {
	return ErrUnauthorized.Error() + ": " + e.cause.Error()
}

func (e *authError) Unwrap() []error {
	return []error{ErrUnauthorized, e.cause}
}
