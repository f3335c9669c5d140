package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/kv"
	"homego/internal/service"
)

func newContentTestRouter(store kv.Store) (*gin.Engine, *service.JWTService) {
	gin.SetMode(gin.TestMode)
	jwtSvc := newTestJWT()
	h := NewContentHandler(zap.NewNop(), store)

	r := gin.New()
	r.GET("/api/content/:key", h.Get)
	r.PUT("/api/content/:key", JWTAuthMiddleware(jwtSvc), RequireRole(domain.RoleAdmin), h.Put)
	return r, jwtSvc
}

func TestContentMissingKeyReturnsEmptyDocument(t *testing.T) {
	r, _ := newContentTestRouter(kv.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/content/home-banner", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{}" {
		t.Fatalf("expected empty document, got %s", got)
	}
}

func TestContentPutThenGetRoundTrip(t *testing.T) {
	store := kv.NewMemoryStore()
	r, jwtSvc := newContentTestRouter(store)
	admin := domain.User{ID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}

	payload := `{"headline":"Winter Sale","cta":"Shop now"}`
	req := httptest.NewRequest(http.MethodPut, "/api/content/home-banner", bytes.NewBufferString(payload))
	req.Header.Set("Authorization", bearerFor(t, jwtSvc, admin))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/content/home-banner", nil)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getRec.Code)
	}

	var doc map[string]string
	if err := json.Unmarshal(getRec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["headline"] != "Winter Sale" || doc["cta"] != "Shop now" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestContentPutRequiresAdmin(t *testing.T) {
	store := kv.NewMemoryStore()
	r, jwtSvc := newContentTestRouter(store)
	customer := domain.User{ID: "c1", Email: "cliente@example.com", Role: domain.RoleCustomer}

	req := httptest.NewRequest(http.MethodPut, "/api/content/home-banner", bytes.NewBufferString(`{"headline":"x"}`))
	req.Header.Set("Authorization", bearerFor(t, jwtSvc, customer))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if _, err := store.Get("content:home-banner"); err == nil {
		t.Fatalf("document must not be stored")
	}
}

func TestContentPutRejectsNonObjectBody(t *testing.T) {
	r, jwtSvc := newContentTestRouter(kv.NewMemoryStore())
	admin := domain.User{ID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}

	req := httptest.NewRequest(http.MethodPut, "/api/content/home-banner", bytes.NewBufferString(`"just a string"`))
	req.Header.Set("Authorization", bearerFor(t, jwtSvc, admin))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
