package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTokenBucketAllow(t *testing.T) {
	l := NewTokenBucket(3, 60)

	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d denied before the bucket emptied", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Fatal("request allowed past capacity")
	}
	// a different key has its own bucket
	if !l.allow("10.0.0.2") {
		t.Fatal("fresh key denied")
	}
}

func TestGinMiddlewareReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(NewTokenBucket(1, 60).GinMiddleware())
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if body := second.Body.String(); body == "" || body[0] != '{' {
		t.Errorf("limit response is not a JSON envelope: %q", body)
	}
}
