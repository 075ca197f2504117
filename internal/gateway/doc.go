// Package gateway はメールゲートウェイサービスの内部実装を提供する。
//
// CloudMailinからのWebhookで受信したメールをメールボックスに保存し、
// Cloudflare Accessで認証された利用者に閲覧と送信のAPIを提供する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線として機能する。
//
// ルーティング表:
//   - POST /incoming       共有シークレット（Basic認証）でWebhookを受信して保存する
//   - POST /outgoing       JWTで認証し、MailChannels経由でメールを送信する
//   - GET  /mail/{base64}  JWTで認証し、1通のメールを返す
//   - GET  /mail           JWTで認証し、全メールのキー（Base64）を返す
package gateway
