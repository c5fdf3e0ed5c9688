package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/legendas/internal/study"
	"github.com/example/legendas/pkg/models"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	return &Server{
		log:       zap.NewNop().Sugar(),
		jwtSecret: []byte("test-secret"),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestServer()
	user := &models.User{ID: 42, Email: "a@b.pt", IsAdmin: true}

	token, err := s.issueToken(user)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	if claims.UserID != 42 || !claims.IsAdmin {
		t.Errorf("claims = %+v, want uid=42 admin=true", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	s := newTestServer()
	token, err := s.issueToken(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	other := &Server{jwtSecret: []byte("different-secret")}
	if _, err := other.parseToken(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	s := newTestServer()
	router := gin.New()
	router.GET("/protected", s.requireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": callerID(c)})
	})

	// No token.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	// Garbage token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}

	// Valid token.
	token, err := s.issueToken(&models.User{ID: 7})
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}

func TestOptionalAuthLetsGuestsThrough(t *testing.T) {
	s := newTestServer()
	router := gin.New()
	router.GET("/open", s.optionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": callerID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("guest request: status = %d, want 200", w.Code)
	}
}

func TestRequireAdminBlocksRegularUsers(t *testing.T) {
	s := newTestServer()
	router := gin.New()
	router.GET("/admin", s.requireAuth(), s.requireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, err := s.issueToken(&models.User{ID: 7, IsAdmin: false})
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin: status = %d, want 403", w.Code)
	}

	adminToken, err := s.issueToken(&models.User{ID: 1, IsAdmin: true})
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", w.Code)
	}
}

func TestCallerIDDefaultsToGuest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := callerID(c); got != study.GuestUserID {
		t.Errorf("callerID without auth = %d, want %d", got, study.GuestUserID)
	}
}
