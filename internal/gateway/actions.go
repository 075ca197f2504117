package gateway

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mailgate/pkg/mail"
	"github.com/nao1215/mailgate/pkg/mailbox"
	"github.com/nao1215/mailgate/pkg/middleware"
)

// ingest はWebhookで受信したメールをMessage-IDをキーにして保存する。
// ボディは受信したバイト列のまま保存する。
// Message-IDが単一の文字列でなければ400、JSONとして不正なボディはエラーとする。
func (s *Server) ingest(c *gin.Context, _ []string) error {
	body, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("Webhookボディの読み取りに失敗: %w", err)
	}

	messageID, err := mail.MessageIDFromJSON(body)
	if errors.Is(err, mail.ErrNoMessageID) {
		log.Printf("[Ingest] Message-IDの無いWebhook: request_id=%s, error=%v", middleware.GetRequestID(c), err)
		c.Status(http.StatusBadRequest)
		return nil
	}
	if err != nil {
		return fmt.Errorf("Webhookボディの解析に失敗: %w", err)
	}

	if m, err := mail.DecodeMessage(body); err == nil {
		log.Printf("[Ingest] 受信: request_id=%s, message_id=%s, from=%s, to=%s, attachments=%d",
			middleware.GetRequestID(c), messageID, m.Envelope.From, m.Envelope.To, len(m.Attachments))
	}

	if err := s.store.Put(c.Request.Context(), messageID, string(body)); err != nil {
		return fmt.Errorf("メールの保存に失敗: %w", err)
	}
	c.Status(http.StatusOK)
	return nil
}

// relayMail はメールをMailChannels経由で送信する。
// 送信結果はログに残すだけで、呼び出し元には常に200を返す。
// JSONとして読めないボディはエラーとする。
func (s *Server) relayMail(c *gin.Context, _ []string) error {
	var out mail.Outgoing
	if err := c.ShouldBindJSON(&out); err != nil {
		return fmt.Errorf("送信リクエストの解析に失敗: %w", err)
	}

	resp, err := s.relay.Send(c.Request.Context(), out)
	switch {
	case err != nil:
		log.Printf("[Relay] 送信失敗: request_id=%s, user=%s, to=%s, error=%v",
			middleware.GetRequestID(c), middleware.GetIdentity(c), out.To, err)
	case !resp.OK():
		log.Printf("[Relay] 送信APIがエラーを返しました: request_id=%s, user=%s, to=%s, status=%d, body=%s",
			middleware.GetRequestID(c), middleware.GetIdentity(c), out.To, resp.StatusCode, string(resp.Body))
	default:
		log.Printf("[Relay] 送信しました: request_id=%s, user=%s, to=%s, status=%d, body=%s",
			middleware.GetRequestID(c), middleware.GetIdentity(c), out.To, resp.StatusCode, string(resp.Body))
	}

	c.Status(http.StatusOK)
	return nil
}

// fetchOne はBase64のキーで1通のメールを返す。
// デコードできないキーは存在しないキーと同じく404とする。
func (s *Server) fetchOne(c *gin.Context, captures []string) error {
	key, ok := decodeKey(captures[0])
	if !ok {
		c.Status(http.StatusNotFound)
		return nil
	}

	body, found, err := s.store.Get(c.Request.Context(), key)
	if err != nil {
		return fmt.Errorf("メールの取得に失敗: %w", err)
	}
	if !found {
		c.Status(http.StatusNotFound)
		return nil
	}
	c.Data(http.StatusOK, "application/json", []byte(body))
	return nil
}

// listAll は全メールのキーをBase64にしたJSON配列を返す。
func (s *Server) listAll(c *gin.Context, _ []string) error {
	keys, err := mailbox.ListAll(c.Request.Context(), s.store)
	if err != nil {
		return fmt.Errorf("メール一覧の取得に失敗: %w", err)
	}

	encoded := make([]string, 0, len(keys))
	for _, k := range keys {
		encoded = append(encoded, encodeKey(k))
	}
	c.JSON(http.StatusOK, encoded)
	return nil
}

// encodeKey はメールボックスのキーを外部に公開する形式にする。
func encodeKey(key string) string {
	return base64.StdEncoding.EncodeToString([]byte(key))
}

// decodeKey は外部に公開した形式のキーを元に戻す。
// パディングの省略は許容する。
func decodeKey(encoded string) (string, bool) {
	if b, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return string(b), true
	}
	if b, err := base64.RawStdEncoding.DecodeString(encoded); err == nil {
		return string(b), true
	}
	return "", false
}
