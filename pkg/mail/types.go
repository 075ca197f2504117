package mail

// SPFResult はSPF検証の結果を表す。
type SPFResult string

const (
	SPFNone      SPFResult = "none"
	SPFNeutral   SPFResult = "neutral"
	SPFPass      SPFResult = "pass"
	SPFFail      SPFResult = "fail"
	SPFSoftFail  SPFResult = "softfail"
	SPFTempError SPFResult = "temperror"
	SPFPermError SPFResult = "permerror"
)

// Disposition は添付ファイルの表示方法を表す。
type Disposition string

const (
	// DispositionAttachment は通常の添付ファイル。
	DispositionAttachment Disposition = "attachment"
	// DispositionInline は本文中に埋め込まれるファイル。
	DispositionInline Disposition = "inline"
)

// Message はCloudMailinが送信する正規化済みJSON形式のメール。
// https://docs.cloudmailin.com/http_post_formats/json_normalized/
type Message struct {
	// Envelope はSMTPエンベロープの情報。
	Envelope Envelope `json:"envelope"`
	// Headers はメールヘッダー。キーは小文字・アンダースコア区切りに正規化されている。
	Headers Headers `json:"headers"`
	// Plain はテキスト形式の本文。
	Plain string `json:"plain,omitempty"`
	// HTML はHTML形式の本文。
	HTML string `json:"html"`
	// ReplyPlain は引用部分を除いた返信本文。
	ReplyPlain string `json:"reply_plain,omitempty"`
	// Attachments は添付ファイル。
	Attachments []Attachment `json:"attachments"`
}

// Envelope はSMTPエンベロープの情報。
type Envelope struct {
	// To はエンベロープの宛先。
	To string `json:"to"`
	// Recipients はエンベロープの全受信者。
	Recipients []string `json:"recipients"`
	// From はエンベロープの送信者。
	From string `json:"from"`
	// HeloDomain は送信元サーバーのHELOドメイン。
	HeloDomain string `json:"helo_domain"`
	// RemoteIP は送信元サーバーのIPアドレス。
	RemoteIP string `json:"remote_ip"`
	// SPF はSPF検証の結果。
	SPF SPF `json:"spf"`
}

// SPF はSPF検証の対象ドメインと結果。
type SPF struct {
	Domain string    `json:"domain"`
	Result SPFResult `json:"result"`
}

// Attachment は添付ファイル。
// 設定によりContent（Base64）かURLのどちらかが入る。
type Attachment struct {
	FileName    string      `json:"file_name"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	Disposition Disposition `json:"disposition"`
	ContentID   string      `json:"content_id,omitempty"`
	URL         string      `json:"url,omitempty"`
	Content     string      `json:"content,omitempty"`
}

// Outgoing はメール送信APIが受け付けるリクエスト。
// 内容は検証せずにそのまま送信APIへ渡し、受け付けるかどうかは送信API側が判断する。
type Outgoing struct {
	// To は宛先のメールアドレス。
	To string `json:"to"`
	// ToName は宛先の表示名。
	ToName string `json:"toName"`
	// Subject は件名。
	Subject string `json:"subject"`
	// Body はテキスト形式の本文。
	Body string `json:"body"`
}
