// Package mailchannels はMailChannelsのトランザクションメールAPIでメールを送信する。
package mailchannels

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/mailgate/pkg/httpclient"
	"github.com/nao1215/mailgate/pkg/mail"
)

// DefaultEndpoint はMailChannelsの送信APIのURL。
const DefaultEndpoint = "https://api.mailchannels.net/tx/v1/send"

// contentTypePlain はテキスト本文のMIMEタイプ。
const contentTypePlain = "text/plain"

// headerAPIKey は送信APIの認証に使うヘッダー。
const headerAPIKey = "X-Api-Key"

// Sender は送信元とDKIM署名の設定。
type Sender struct {
	// FromEmail は送信元のメールアドレス。
	FromEmail string
	// FromName は送信元の表示名。
	FromName string
	// DKIMDomain はDKIM署名のドメイン。
	DKIMDomain string
	// DKIMSelector はDKIM署名のセレクタ。
	DKIMSelector string
	// DKIMPrivateKey はDKIM署名の秘密鍵（Base64）。
	DKIMPrivateKey string
}

// Client はMailChannelsの送信APIクライアント。
type Client struct {
	// http は送信APIへのHTTPクライアント。
	http *httpclient.Client
	// sender は送信元とDKIM署名の設定。
	sender Sender
}

// Option は送信APIクライアントの設定を変更する関数。
type Option func(*[]httpclient.Option)

// WithAPIKey は送信APIのキーをX-Api-Keyヘッダーで付与する。空文字の場合は何もしない。
func WithAPIKey(key string) Option {
	return func(opts *[]httpclient.Option) {
		if key != "" {
			*opts = append(*opts, httpclient.WithHeader(headerAPIKey, key))
		}
	}
}

// WithTimeout は1回の送信に許す最大時間を変更する。0以下の場合は既定値のまま。
func WithTimeout(d time.Duration) Option {
	return func(opts *[]httpclient.Option) {
		if d > 0 {
			*opts = append(*opts, httpclient.WithTimeout(d))
		}
	}
}

// New は送信APIクライアントを生成する。
func New(endpoint string, sender Sender, opts ...Option) *Client {
	var httpOpts []httpclient.Option
	for _, opt := range opts {
		opt(&httpOpts)
	}
	return &Client{
		http:   httpclient.New(endpoint, httpOpts...),
		sender: sender,
	}
}

// address はメールアドレスと表示名の組。
type address struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// personalization は宛先ごとの設定。
type personalization struct {
	To             []address `json:"to"`
	DKIMDomain     string    `json:"dkim_domain"`
	DKIMSelector   string    `json:"dkim_selector"`
	DKIMPrivateKey string    `json:"dkim_private_key"`
}

// content はメール本文の1パート。
type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// sendRequest は送信APIのリクエストボディ。
type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// newSendRequest は送信リクエストのボディを組み立てる。
func (c *Client) newSendRequest(out mail.Outgoing) sendRequest {
	return sendRequest{
		Personalizations: []personalization{{
			To:             []address{{Email: out.To, Name: out.ToName}},
			DKIMDomain:     c.sender.DKIMDomain,
			DKIMSelector:   c.sender.DKIMSelector,
			DKIMPrivateKey: c.sender.DKIMPrivateKey,
		}},
		From:    address{Email: c.sender.FromEmail, Name: c.sender.FromName},
		Subject: out.Subject,
		Content: []content{{Type: contentTypePlain, Value: out.Body}},
	}
}

// Send はメールを1通送信し、APIのレスポンスを返す。
// APIが2xx以外を返してもエラーにはせず、レスポンスをそのまま返す。
// リトライは行わない。
func (c *Client) Send(ctx context.Context, out mail.Outgoing) (*httpclient.Response, error) {
	resp, err := c.http.Post(ctx, "", c.newSendRequest(out))
	if err != nil {
		return nil, fmt.Errorf("メール送信APIの呼び出しに失敗: %w", err)
	}
	return resp, nil
}
