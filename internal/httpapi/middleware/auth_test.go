package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{
		Public: []string{"pub_key"},
		Admin:  []string{"adm_key"},
	}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Admin key -> 200
	reqAdm := httptest.NewRequest(http.MethodGet, "/admin", nil)
	reqAdm.Header.Set("X-API-Key", "adm_key")
	recAdm := httptest.NewRecorder()
	RequireAdmin(keys)(okHandler).ServeHTTP(recAdm, reqAdm)
	if recAdm.Code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", recAdm.Code)
	}

	// Public key -> 403
	reqPub := httptest.NewRequest(http.MethodGet, "/admin", nil)
	reqPub.Header.Set("X-API-Key", "pub_key")
	recPub := httptest.NewRecorder()
	RequireAdmin(keys)(okHandler).ServeHTTP(recPub, reqPub)
	if recPub.Code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", recPub.Code)
	}
}

func TestRequireAny_BearerAndHeaderForms(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}}
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	reqBearer := httptest.NewRequest(http.MethodGet, "/", nil)
	reqBearer.Header.Set("Authorization", "Bearer pub_key")
	rec := httptest.NewRecorder()
	RequireAny(keys)(okHandler).ServeHTTP(rec, reqBearer)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer form rejected: %d", rec.Code)
	}

	reqNone := httptest.NewRequest(http.MethodGet, "/", nil)
	recNone := httptest.NewRecorder()
	RequireAny(keys)(okHandler).ServeHTTP(recNone, reqNone)
	if recNone.Code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401; got %d", recNone.Code)
	}

	// rejections carry the API's JSON error shape
	if got := strings.TrimSpace(recNone.Body.String()); got != `{"error":"unauthorized"}` {
		t.Fatalf("unexpected rejection body: %s", got)
	}
	if ct := recNone.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("rejection content type = %q", ct)
	}
}

func TestRequireAny_NoKeysConfiguredAllowsAll(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	RequireAny(Keys{})(okHandler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unconfigured auth should allow all; got %d", rec.Code)
	}
}
