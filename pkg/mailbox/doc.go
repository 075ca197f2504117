// Package mailbox は受信メールを保存するキーバリューストアを提供する。
//
// キーはWebhookが付与したMessage-ID、値は受信したJSONボディそのもの。
// ストアは1件単位の取得・保存と、カーソルによるキー一覧のページングのみを持つ。
// ListAllはカーソルを最後までたどり、全キーを重複なく集める。
//
// バックエンドとしてSQLite（既定）、Redis、メモリの3種類を用意している。
package mailbox
