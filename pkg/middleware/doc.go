// Package middleware はゲートウェイのGinエンジンで使用する共通ミドルウェアを提供する。
//
// 全レスポンスへのCORSヘッダー付与とプリフライトへの応答、
// リクエストIDの採番、パニックリカバリ、認証済み主体の受け渡しを含む。
package middleware
