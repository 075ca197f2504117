package route

import (
	"log"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mailgate/pkg/auth"
	"github.com/nao1215/mailgate/pkg/middleware"
)

// Action は認証済みのリクエストを処理する。
// capturesにはパスパターンのキャプチャグループが順に入る。
// 返したエラーはサーバーエラーとして扱われる。
type Action interface {
	Serve(c *gin.Context, captures []string) error
}

// ActionFunc は関数をActionとして扱うためのアダプタ。
type ActionFunc func(c *gin.Context, captures []string) error

// Serve はf(c, captures)を呼び出す。
func (f ActionFunc) Serve(c *gin.Context, captures []string) error {
	return f(c, captures)
}

// Binding はパスパターン・検証器・アクションの組。
type Binding struct {
	// Pattern はリクエストパスに照合する正規表現。
	Pattern *regexp.Regexp
	// Validator はAuthorizationヘッダーの認証情報を検証する。
	Validator auth.Validator
	// Action は認証に成功したリクエストを処理する。
	Action Action
}

// Bind はパターン文字列からBindingを生成する。
// パターンが不正な場合はパニックする。起動時の設定でのみ使う。
func Bind(pattern string, validator auth.Validator, action Action) Binding {
	return Binding{
		Pattern:   regexp.MustCompile(pattern),
		Validator: validator,
		Action:    action,
	}
}

// Router は順序付きのBinding表でリクエストを振り分ける。
type Router struct {
	bindings []Binding
}

// New はBinding表からRouterを生成する。表はコピーして保持する。
func New(bindings ...Binding) *Router {
	return &Router{bindings: append([]Binding(nil), bindings...)}
}

// Match はpathに最初に一致したBindingとキャプチャグループを返す。
func (r *Router) Match(path string) (Binding, []string, bool) {
	for _, b := range r.bindings {
		if m := b.Pattern.FindStringSubmatch(path); m != nil {
			return b, m[1:], true
		}
	}
	return Binding{}, nil, false
}

// Handle はリクエストを振り分けるGinハンドラ。
//
// 一致するパターンが無ければ404、認証に失敗すれば401を返す。
// 認証に成功した場合はアクションの応答をそのまま返し、
// アクションがエラーを返した場合はログに記録して500を返す。
func (r *Router) Handle(c *gin.Context) {
	path := c.Request.URL.Path

	b, captures, ok := r.Match(path)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	token, _ := auth.Extract(c.GetHeader("Authorization"))
	identity, err := b.Validator.Validate(c.Request.Context(), token)
	if err != nil {
		log.Printf("[Router] 認証失敗: request_id=%s, path=%s, error=%v", middleware.GetRequestID(c), path, err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	middleware.SetIdentity(c, string(identity))

	if err := b.Action.Serve(c, captures); err != nil {
		log.Printf("[Router] アクションエラー: request_id=%s, path=%s, error=%v", middleware.GetRequestID(c), path, err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
