// Package httpclient は外部サービスとのJSON形式のHTTP通信を行うクライアントを提供する。
//
// トランザクションメールAPIへの送信など、ゲートウェイから外部へ出ていく
// 通信のタイムアウトと共通ヘッダーの扱いを統一する。
package httpclient
