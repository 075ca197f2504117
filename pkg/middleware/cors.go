package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSHeaders は全レスポンスに付与するCORSヘッダーの値。
// 起動時に1度だけ組み立て、以降は変更しない。
type CORSHeaders struct {
	// AllowHeaders はAccess-Control-Allow-Headersの値。
	AllowHeaders string
	// AllowMethods はAccess-Control-Allow-Methodsの値。
	AllowMethods string
	// AllowOrigin はAccess-Control-Allow-Originの値。
	AllowOrigin string
}

// StandardCORSHeaders はゲートウェイが返す標準のCORSヘッダー。
func StandardCORSHeaders() CORSHeaders {
	return CORSHeaders{
		AllowHeaders: "Cache-Control,Content-Type,Authorization",
		AllowMethods: "GET,HEAD,PUT,POST,DELETE",
		AllowOrigin:  "*",
	}
}

// CORS は全レスポンスにCORSヘッダーを付与するGinミドルウェアを返す。
// OPTIONSリクエストは認証もルーティングも行わず、空の200で応答する。
func CORS(headers CORSHeaders) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Headers", headers.AllowHeaders)
		c.Header("Access-Control-Allow-Methods", headers.AllowMethods)
		c.Header("Access-Control-Allow-Origin", headers.AllowOrigin)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
