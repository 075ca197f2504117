// Package mail はゲートウェイが扱うメールのデータ構造を提供する。
//
// CloudMailinのWebhookが送ってくる正規化済みJSON（Message）と、
// 利用者がメール送信APIに渡すリクエスト（Outgoing）を定義する。
package mail
