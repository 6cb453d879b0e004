package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"arbor-server/chat-api/internal/domain"
)

func rateLimitedEngine(limitPerMinute float64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Principal"); id != "" {
			setPrincipal(c, domain.Principal{ID: id, Kind: domain.PrincipalKindUser})
		}
		c.Next()
	})
	engine.Use(RateLimitMiddleware(limitPerMinute))
	engine.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return engine
}

func probeAs(engine *gin.Engine, principalID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if principalID != "" {
		req.Header.Set("X-Test-Principal", principalID)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AnonymousExhaustsBucket(t *testing.T) {
	engine := rateLimitedEngine(2)

	for i := 0; i < 2; i++ {
		if rec := probeAs(engine, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	rec := probeAs(engine, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}

func TestRateLimit_PrincipalsHaveSeparateBuckets(t *testing.T) {
	engine := rateLimitedEngine(1)

	if rec := probeAs(engine, "alice"); rec.Code != http.StatusOK {
		t.Fatalf("alice first request status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := probeAs(engine, "alice"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("alice second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different principal from the same client IP is not affected.
	if rec := probeAs(engine, "bob"); rec.Code != http.StatusOK {
		t.Errorf("bob status = %d, want %d", rec.Code, http.StatusOK)
	}
}
