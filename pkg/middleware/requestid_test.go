package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TestRequestID はリクエストIDの採番を検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		seen = GetRequestID(c)
		SetIdentity(c, "operator@example.com")
		if got := GetIdentity(c); got != "operator@example.com" {
			t.Errorf("GetIdentity() = %q", got)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

	header := w.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(header); err != nil {
		t.Fatalf("%s = %q はUUIDではない: %v", HeaderRequestID, header, err)
	}
	if seen != header {
		t.Errorf("GetRequestID() = %q, want %q", seen, header)
	}

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/id", nil))
	if w2.Header().Get(HeaderRequestID) == header {
		t.Error("リクエストごとに異なるIDが採番されていない")
	}
}
