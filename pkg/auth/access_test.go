package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "https://example.cloudflareaccess.com"
	testAudience = "test-aud"
)

// testJWK はテスト用に公開するJWK。
type testJWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// jwksServer はテスト用のJWKSエンドポイント。
type jwksServer struct {
	*httptest.Server

	mu     sync.Mutex
	keys   []testJWK
	status int
	// gate がnilでない間、リクエストはgateが閉じられるまで応答しない。
	gate    chan struct{}
	entered chan struct{}
	hits    atomic.Int32
}

// newJWKSServer はテスト用のJWKSエンドポイントを起動する。
func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()

	s := &jwksServer{status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.hits.Add(1)

		s.mu.Lock()
		gate, entered := s.gate, s.entered
		s.mu.Unlock()
		if gate != nil {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-gate
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]testJWK{"keys": s.keys})
	}))
	t.Cleanup(s.Close)
	return s
}

// addRSA はRSA公開鍵をkidで公開する。
func (s *jwksServer) addRSA(kid string, pub *rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, testJWK{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	})
}

// addEC はEC公開鍵をkidで公開する。
func (s *jwksServer) addEC(kid string, pub *ecdsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, testJWK{
		Kty: "EC",
		Kid: kid,
		Use: "sig",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(pub.X.FillBytes(make([]byte, 32))),
		Y:   base64.RawURLEncoding.EncodeToString(pub.Y.FillBytes(make([]byte, 32))),
	})
}

// setStatus はJWKSエンドポイントが返すステータスを変更する。
func (s *jwksServer) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// hold は以降のリクエストを止める。
// リクエストが届くとenteredに通知し、releaseを呼ぶまで応答しない。
func (s *jwksServer) hold(t *testing.T) (entered <-chan struct{}, release func()) {
	t.Helper()

	gate := make(chan struct{})
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.gate, s.entered = gate, ch
	s.mu.Unlock()

	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return ch, release
}

// newTestValidator はsrvのJWKSで検証する検証器を生成する。
func newTestValidator(t *testing.T, srv *jwksServer) *JWKSValidator {
	t.Helper()

	keys, err := NewRemoteKeys(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("NewRemoteKeys()でエラーが発生: %v", err)
	}
	return NewJWKSValidator(keys, testIssuer, testAudience)
}

// newRSAKey はテスト用のRSA鍵を生成する。
func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("RSA鍵の生成に失敗: %v", err)
	}
	return key
}

// validClaims は検証に成功する標準的なクレームを返す。
func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"email": "operator@example.com",
		"iss":   testIssuer,
		"aud":   []string{testAudience},
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

// signToken はクレームに署名したトークンを返す。
func signToken(t *testing.T, method jwt.SigningMethod, key any, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}
	return signed
}

// TestJWKSValidator はJWKS検証器を検証する。
func TestJWKSValidator(t *testing.T) {
	t.Parallel()

	key := newRSAKey(t)
	otherKey := newRSAKey(t)

	newValidator := func(t *testing.T) (*JWKSValidator, *jwksServer) {
		t.Helper()
		srv := newJWKSServer(t)
		srv.addRSA("k1", &key.PublicKey)
		return newTestValidator(t, srv), srv
	}

	t.Run("正しく署名されたトークンでemailを返すこと", func(t *testing.T) {
		t.Parallel()

		v, _ := newValidator(t)
		token := signToken(t, jwt.SigningMethodRS256, key, "k1", validClaims())

		id, err := v.Validate(context.Background(), token)
		if err != nil {
			t.Fatalf("Validate()でエラーが発生: %v", err)
		}
		if id != "operator@example.com" {
			t.Errorf("Identity = %q, want %q", id, "operator@example.com")
		}
	})

	t.Run("EC鍵で署名されたトークンを検証できること", func(t *testing.T) {
		t.Parallel()

		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			t.Fatalf("EC鍵の生成に失敗: %v", err)
		}
		srv := newJWKSServer(t)
		srv.addEC("ec1", &ecKey.PublicKey)
		v := newTestValidator(t, srv)

		id, err := v.Validate(context.Background(), signToken(t, jwt.SigningMethodES256, ecKey, "ec1", validClaims()))
		if err != nil {
			t.Fatalf("Validate()でエラーが発生: %v", err)
		}
		if id != "operator@example.com" {
			t.Errorf("Identity = %q, want %q", id, "operator@example.com")
		}
	})

	failures := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "トークンが空",
			token: func(*testing.T) string { return "" },
		},
		{
			name:  "JWT形式でない",
			token: func(*testing.T) string { return "not-a-jwt" },
		},
		{
			name: "別の鍵で署名されている",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodRS256, otherKey, "k1", validClaims())
			},
		},
		{
			name: "有効期限が切れている",
			token: func(t *testing.T) string {
				c := validClaims()
				c["exp"] = time.Now().Add(-time.Hour).Unix()
				return signToken(t, jwt.SigningMethodRS256, key, "k1", c)
			},
		},
		{
			name: "有効期限が無い",
			token: func(t *testing.T) string {
				c := validClaims()
				delete(c, "exp")
				return signToken(t, jwt.SigningMethodRS256, key, "k1", c)
			},
		},
		{
			name: "別組織の発行者",
			token: func(t *testing.T) string {
				c := validClaims()
				c["iss"] = "https://other.cloudflareaccess.com"
				return signToken(t, jwt.SigningMethodRS256, key, "k1", c)
			},
		},
		{
			name: "audienceが違う",
			token: func(t *testing.T) string {
				c := validClaims()
				c["aud"] = []string{"other-aud"}
				return signToken(t, jwt.SigningMethodRS256, key, "k1", c)
			},
		},
		{
			name: "emailクレームが無い",
			token: func(t *testing.T) string {
				c := validClaims()
				delete(c, "email")
				return signToken(t, jwt.SigningMethodRS256, key, "k1", c)
			},
		},
		{
			name: "emailクレームが文字列でない",
			token: func(t *testing.T) string {
				c := validClaims()
				c["email"] = 42
				return signToken(t, jwt.SigningMethodRS256, key, "k1", c)
			},
		},
		{
			name: "HS256で署名されている",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte("shared"), "k1", validClaims())
			},
		},
		{
			name: "kidが無い",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodRS256, key, "", validClaims())
			},
		},
		{
			name: "kidが未知",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodRS256, key, "unknown", validClaims())
			},
		},
	}

	for _, tt := range failures {
		t.Run(tt.name+"場合はErrUnauthorizedを返すこと", func(t *testing.T) {
			t.Parallel()

			v, _ := newValidator(t)
			_, err := v.Validate(context.Background(), tt.token(t))
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("err = %v, want ErrUnauthorized", err)
			}
		})
	}

	t.Run("JWKSの再取得に失敗した場合はErrUnauthorizedを返すこと", func(t *testing.T) {
		t.Parallel()

		v, srv := newValidator(t)
		rotated := newRSAKey(t)
		srv.addRSA("k2", &rotated.PublicKey)
		srv.setStatus(http.StatusServiceUnavailable)

		_, err := v.Validate(context.Background(), signToken(t, jwt.SigningMethodRS256, rotated, "k2", validClaims()))
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

// TestRemoteKeys はJWKSの取得と再取得を検証する。
func TestRemoteKeys(t *testing.T) {
	t.Parallel()

	key := newRSAKey(t)

	t.Run("取得済みのkidでは再取得しないこと", func(t *testing.T) {
		t.Parallel()

		srv := newJWKSServer(t)
		srv.addRSA("k1", &key.PublicKey)
		v := newTestValidator(t, srv)

		for range 3 {
			if _, err := v.Validate(context.Background(), signToken(t, jwt.SigningMethodRS256, key, "k1", validClaims())); err != nil {
				t.Fatalf("Validate()でエラーが発生: %v", err)
			}
		}
		if got := srv.hits.Load(); got != 1 {
			t.Errorf("取得回数 = %d, want 1", got)
		}
	})

	t.Run("鍵のローテーション後に未知のkidで再取得すること", func(t *testing.T) {
		t.Parallel()

		srv := newJWKSServer(t)
		srv.addRSA("k1", &key.PublicKey)
		v := newTestValidator(t, srv)

		rotated := newRSAKey(t)
		srv.addRSA("k2", &rotated.PublicKey)

		id, err := v.Validate(context.Background(), signToken(t, jwt.SigningMethodRS256, rotated, "k2", validClaims()))
		if err != nil {
			t.Fatalf("Validate()でエラーが発生: %v", err)
		}
		if id != "operator@example.com" {
			t.Errorf("Identity = %q, want %q", id, "operator@example.com")
		}
		if got := srv.hits.Load(); got != 2 {
			t.Errorf("取得回数 = %d, want 2", got)
		}
	})

	t.Run("JWKSの再取得中も取得済みの鍵で検証できること", func(t *testing.T) {
		t.Parallel()

		srv := newJWKSServer(t)
		srv.addRSA("k1", &key.PublicKey)
		v := newTestValidator(t, srv)

		unknownToken := signToken(t, jwt.SigningMethodRS256, key, "k9", validClaims())
		cachedToken := signToken(t, jwt.SigningMethodRS256, key, "k1", validClaims())
		entered, release := srv.hold(t)

		unknown := make(chan error, 1)
		go func() {
			_, err := v.Validate(context.Background(), unknownToken)
			unknown <- err
		}()
		select {
		case <-entered:
		case <-time.After(5 * time.Second):
			t.Fatal("未知のkidでJWKSを再取得しない")
		}

		cached := make(chan error, 1)
		go func() {
			_, err := v.Validate(context.Background(), cachedToken)
			cached <- err
		}()
		select {
		case err := <-cached:
			if err != nil {
				t.Errorf("Validate()でエラーが発生: %v", err)
			}
		case <-time.After(time.Second):
			t.Error("取得済みの鍵による検証がJWKSの再取得を待っている")
		}

		release()
		if err := <-unknown; !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

// TestCloudflareAccessURLs は組織名から導出するURLを検証する。
func TestCloudflareAccessURLs(t *testing.T) {
	t.Parallel()

	if got := CloudflareAccessCertsURL("acme"); got != "https://acme.cloudflareaccess.com/cdn-cgi/access/certs" {
		t.Errorf("CloudflareAccessCertsURL = %q", got)
	}
	if got := CloudflareAccessIssuer("acme"); got != "https://acme.cloudflareaccess.com" {
		t.Errorf("CloudflareAccessIssuer = %q", got)
	}
}
