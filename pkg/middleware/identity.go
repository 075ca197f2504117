package middleware

import "github.com/gin-gonic/gin"

// contextKeyIdentity はGinコンテキストに認証済みの主体を格納するキー。
const contextKeyIdentity = "identity"

// SetIdentity は認証済みの主体をGinコンテキストに設定する。
// 共有シークレット方式では空文字、JWKS方式ではメールアドレスとなる。
func SetIdentity(c *gin.Context, identity string) {
	c.Set(contextKeyIdentity, identity)
}

// GetIdentity はGinコンテキストから認証済みの主体を取得する。
// 認証前、またはWebhook送信元の場合は空文字を返す。
func GetIdentity(c *gin.Context) string {
	return c.GetString(contextKeyIdentity)
}
