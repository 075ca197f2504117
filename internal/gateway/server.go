package gateway

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mailgate/pkg/auth"
	"github.com/nao1215/mailgate/pkg/httpclient"
	"github.com/nao1215/mailgate/pkg/mail"
	"github.com/nao1215/mailgate/pkg/mailbox"
	"github.com/nao1215/mailgate/pkg/mailchannels"
	"github.com/nao1215/mailgate/pkg/middleware"
	"github.com/nao1215/mailgate/pkg/route"
)

// relayer は送信メールを外部のメール送信APIに渡す。
type relayer interface {
	Send(ctx context.Context, out mail.Outgoing) (*httpclient.Response, error)
}

// Server はメールゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store は受信メールを保存するメールボックス。
	store mailbox.Store
	// closeStore はメールボックスの接続を閉じる。
	closeStore func() error
	// relay はメール送信APIのクライアント。
	relay relayer
}

// NewServer は設定から新しいゲートウェイサーバーを生成する。
// JWKSの取得、メールボックスへの接続とスキーマ初期化を行う。
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	ctx, stop := context.WithCancel(ctx)

	access, err := auth.NewCloudflareAccessValidator(ctx, cfg.Organization, cfg.AccessAudience)
	if err != nil {
		stop()
		return nil, fmt.Errorf("Cloudflare Accessの初期化に失敗: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		stop()
		return nil, fmt.Errorf("メールボックスの初期化に失敗: %w", err)
	}

	s := newServer(
		cfg.Port,
		store,
		auth.NewSharedSecretValidator(cfg.CloudMailinKey),
		access,
		mailchannels.New(cfg.MailChannelsURL, cfg.sender(),
			mailchannels.WithAPIKey(cfg.MailChannelsAPIKey),
			mailchannels.WithTimeout(cfg.RelayTimeout),
		),
	)
	s.closeStore = func() error {
		// JWKSのバックグラウンド更新を止める
		stop()
		return closeStore()
	}
	return s, nil
}

// newServer は依存を受け取ってサーバーを組み立てる。
func newServer(port string, store mailbox.Store, webhook, access auth.Validator, relay relayer) *Server {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.CORS(middleware.StandardCORSHeaders()))
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())

	s := &Server{
		router:     router,
		port:       port,
		store:      store,
		closeStore: func() error { return nil },
		relay:      relay,
	}
	s.setupRoutes(webhook, access)
	return s
}

// openStore は設定されたバックエンドのメールボックスを開く。
func openStore(ctx context.Context, cfg Config) (mailbox.Store, func() error, error) {
	switch cfg.MailboxBackend {
	case backendSQLite:
		s, err := mailbox.OpenSQLite(ctx, cfg.SQLitePath, cfg.PageSize)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case backendRedis:
		s, err := mailbox.OpenRedis(ctx, cfg.RedisURL, cfg.PageSize)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case backendMemory:
		return mailbox.NewMemoryStore(cfg.PageSize), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("未対応のバックエンド: %s", cfg.MailboxBackend)
	}
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はJWKSの更新を止め、メールボックスの接続を閉じる。
func (s *Server) Close() error {
	return s.closeStore()
}

// setupRoutes はルーティング表を組み立て、全リクエストをRouterに渡す。
func (s *Server) setupRoutes(webhook, access auth.Validator) {
	router := route.New(
		// CloudMailinからのWebhook
		route.Bind(`^/incoming$`, webhook, route.ActionFunc(s.ingest)),
		// メール送信
		route.Bind(`^/outgoing$`, access, route.ActionFunc(s.relayMail)),
		// 1通の取得（キーはBase64）
		route.Bind(`^/mail/([A-Za-z0-9+/=]+)$`, access, route.ActionFunc(s.fetchOne)),
		// キー一覧
		route.Bind(`^/mail$`, access, route.ActionFunc(s.listAll)),
	)
	s.router.Any("/*path", router.Handle)
}
