package gateway

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nao1215/mailgate/pkg/mailbox"
	"github.com/nao1215/mailgate/pkg/mailchannels"
)

// メールボックスのバックエンド種別。
const (
	backendSQLite = "sqlite"
	backendRedis  = "redis"
	backendMemory = "memory"
)

// Config はゲートウェイの設定。起動時に環境変数から1度だけ読み込む。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string `validate:"required,numeric"`
	// CloudMailinKey はWebhookのBasic認証に使う共有シークレット。
	CloudMailinKey string `validate:"required"`
	// Organization はCloudflare Accessのチーム名。JWKSのURLと発行者の導出に使う。
	Organization string `validate:"required"`
	// AccessAudience はトークンに要求するaudience。空の場合は検証しない。
	AccessAudience string
	// DKIMPrivateKey は送信メールのDKIM署名に使う秘密鍵。
	DKIMPrivateKey string `validate:"required"`
	// DKIMDomain はDKIM署名のドメイン。
	DKIMDomain string `validate:"required,fqdn"`
	// DKIMSelector はDKIM署名のセレクタ。
	DKIMSelector string `validate:"required"`
	// FromEmail は送信メールの送信元アドレス。
	FromEmail string `validate:"required,email"`
	// FromName は送信メールの送信元表示名。
	FromName string
	// MailChannelsURL はメール送信APIのURL。
	MailChannelsURL string `validate:"required,url"`
	// MailChannelsAPIKey はメール送信APIのキー。空の場合は付与しない。
	MailChannelsAPIKey string
	// RelayTimeout はメール送信API呼び出し1回のタイムアウト。
	RelayTimeout time.Duration `validate:"gt=0"`
	// MailboxBackend はメールボックスのバックエンド。
	MailboxBackend string `validate:"required,oneof=sqlite redis memory"`
	// SQLitePath はSQLiteバックエンドのDSN。
	SQLitePath string `validate:"required_if=MailboxBackend sqlite"`
	// RedisURL はRedisバックエンドの接続URL。
	RedisURL string `validate:"required_if=MailboxBackend redis"`
	// PageSize はキー一覧を1回に取得する件数。0の場合はバックエンドの既定値。
	PageSize int `validate:"gte=0"`
}

// LoadConfig は環境変数から設定を読み込み、検証する。
func LoadConfig() (Config, error) {
	return loadConfig(os.Getenv)
}

// loadConfig はgetenvから設定を読み込み、検証する。
func loadConfig(getenv func(string) string) (Config, error) {
	getEnvOr := func(key, defaultValue string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return defaultValue
	}

	pageSize := 0
	if v := getenv("MAILBOX_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("MAILBOX_PAGE_SIZEが数値ではありません: %w", err)
		}
		pageSize = n
	}

	relayTimeout, err := time.ParseDuration(getEnvOr("MAILCHANNELS_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("MAILCHANNELS_TIMEOUTが不正: %w", err)
	}

	cfg := Config{
		Port:               getEnvOr("PORT", "8080"),
		CloudMailinKey:     getenv("CLOUDMAILIN_KEY"),
		Organization:       getenv("CLOUDFLARE_ORGANIZATION"),
		AccessAudience:     getenv("CLOUDFLARE_ACCESS_AUD"),
		DKIMPrivateKey:     getenv("DKIM_PRIVATE_KEY"),
		DKIMDomain:         getEnvOr("DKIM_DOMAIN", "iggyvolz.com"),
		DKIMSelector:       getEnvOr("DKIM_SELECTOR", "email"),
		FromEmail:          getEnvOr("MAIL_FROM", "testcf@iggyvolz.com"),
		FromName:           getEnvOr("MAIL_FROM_NAME", "Test cloudflare box"),
		MailChannelsURL:    getEnvOr("MAILCHANNELS_URL", mailchannels.DefaultEndpoint),
		MailChannelsAPIKey: getenv("MAILCHANNELS_API_KEY"),
		RelayTimeout:       relayTimeout,
		MailboxBackend:     getEnvOr("MAILBOX_BACKEND", backendSQLite),
		SQLitePath:         getEnvOr("MAILBOX_SQLITE_PATH", "/data/mailbox.db?"+mailbox.SQLitePragmas),
		RedisURL:           getEnvOr("REDIS_URL", "redis://localhost:6379/0"),
		PageSize:           pageSize,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値を検証する。
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("設定が不正: %w", err)
	}
	return nil
}

// sender は設定から送信元とDKIM署名の設定を組み立てる。
func (c Config) sender() mailchannels.Sender {
	return mailchannels.Sender{
		FromEmail:      c.FromEmail,
		FromName:       c.FromName,
		DKIMDomain:     c.DKIMDomain,
		DKIMSelector:   c.DKIMSelector,
		DKIMPrivateKey: c.DKIMPrivateKey,
	}
}
