// Package auth はリクエストの認証情報を取り出し、検証する仕組みを提供する。
//
// Authorizationヘッダーからトークンを取り出すExtractと、
// 取り出したトークンを検証するValidatorインターフェースを含む。
// Validatorには共有シークレット方式（Webhook受信用）と
// リモートJWKSによるJWT検証方式（利用者向けAPI用）の2種類がある。
// どちらの方式も失敗時はErrUnauthorizedを返すため、
// 呼び出し側はどの方式が使われているかを意識する必要がない。
package auth
