package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedMethods はJWKS方式で受け付ける署名アルゴリズム。
var allowedMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// claimEmail は利用者のメールアドレスを持つクレーム名。
const claimEmail = "email"

// CloudflareAccessCertsURL は組織のCloudflare AccessがJWKSを公開しているURLを返す。
func CloudflareAccessCertsURL(organization string) string {
	return fmt.Sprintf("https://%s.cloudflareaccess.com/cdn-cgi/access/certs", organization)
}

// CloudflareAccessIssuer は組織のCloudflare Accessが発行するトークンのissを返す。
func CloudflareAccessIssuer(organization string) string {
	return fmt.Sprintf("https://%s.cloudflareaccess.com", organization)
}

// NewRemoteKeys はcertsURLで公開されているJWKSを取得する。
// 鍵はctxが終わるまでバックグラウンドで定期的に更新される。
// 未知のkidを受け取った場合は頻度を制限して再取得し、
// その間も取得済みの鍵による検証は待たされない。
func NewRemoteKeys(ctx context.Context, certsURL string) (keyfunc.Keyfunc, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{certsURL})
	if err != nil {
		return nil, fmt.Errorf("JWKSの設定に失敗: %w", err)
	}
	return k, nil
}

// JWKSValidator はリモートJWKSで署名を検証するJWT検証器。
// 検証に成功するとトークンのemailクレームを主体として返す。
type JWKSValidator struct {
	// keys はkidから署名検証用の公開鍵を引く。
	keys keyfunc.Keyfunc
	// parser はクレーム検証の設定を持つJWTパーサー。
	parser *jwt.Parser
}

// NewJWKSValidator はJWKS検証器を生成する。
// issuerとaudienceは空文字の場合に検証しない。
func NewJWKSValidator(keys keyfunc.Keyfunc, issuer, audience string) *JWKSValidator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(allowedMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWKSValidator{
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}
}

// NewCloudflareAccessValidator は組織のCloudflare Access用のJWKS検証器を生成する。
// JWKSの更新はctxが終わるまで続く。
func NewCloudflareAccessValidator(ctx context.Context, organization, audience string) (*JWKSValidator, error) {
	keys, err := NewRemoteKeys(ctx, CloudflareAccessCertsURL(organization))
	if err != nil {
		return nil, err
	}
	return NewJWKSValidator(keys, CloudflareAccessIssuer(organization), audience), nil
}

// Validate はトークンの署名とクレームを検証し、emailクレームを返す。
// JWKSの取得失敗も含め、すべての失敗はErrUnauthorizedとなる。
func (v *JWKSValidator) Validate(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return "", unauthorized(errors.New("ベアラートークンがありません"))
	}

	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keys.Keyfunc); err != nil {
		return "", unauthorized(err)
	}

	email, ok := claims[claimEmail].(string)
	if !ok || email == "" {
		return "", unauthorized(errors.New("emailクレームがありません"))
	}
	return Identity(email), nil
}
