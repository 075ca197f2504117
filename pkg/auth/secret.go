package auth

import (
	"context"
	"crypto/subtle"
	"errors"
)

// webhookUser はCloudMailinがBasic認証で送ってくるユーザー名。
const webhookUser = "cloudmailin"

// SharedSecretValidator はWebhook受信用の共有シークレット検証器。
// トークンが "cloudmailin:<secret>" と完全一致した場合のみ成功する。
type SharedSecretValidator struct {
	// expected は期待するトークン全体。
	expected []byte
}

// NewSharedSecretValidator は共有シークレットから検証器を生成する。
func NewSharedSecretValidator(secret string) *SharedSecretValidator {
	return &SharedSecretValidator{expected: []byte(webhookUser + ":" + secret)}
}

// Validate はトークンを定数時間で比較する。
func (v *SharedSecretValidator) Validate(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return "", unauthorized(errors.New("認証情報がありません"))
	}
	if subtle.ConstantTimeCompare([]byte(token), v.expected) != 1 {
		return "", unauthorized(errors.New("共有シークレットが一致しません"))
	}
	return WebhookIdentity, nil
}
