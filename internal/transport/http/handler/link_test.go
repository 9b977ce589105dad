package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/lewebsimple/autologin/internal/transport/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeLinkUsecase implements the unexported linkUsecaser interface via method matching.
type fakeLinkUsecase struct {
	issue  func(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error)
	lookup func(ctx context.Context, userID, redirect string) (string, error)
	send   func(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error)
}

func (f *fakeLinkUsecase) Issue(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error) {
	return f.issue(ctx, userID, redirect, ttl)
}

func (f *fakeLinkUsecase) Lookup(ctx context.Context, userID, redirect string) (string, error) {
	return f.lookup(ctx, userID, redirect)
}

func (f *fakeLinkUsecase) Send(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error) {
	return f.send(ctx, userID, redirect, ttl)
}

func newTestEngine(uc *fakeLinkUsecase) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewLinkHandler(uc, logger)

	r := gin.New()
	r.POST("/api/links", h.Create)
	r.GET("/api/links", h.Lookup)
	r.NoRoute(handler.NotFound)
	return r
}

func postJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeURL(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return resp.URL
}

// ---- Create ----

func TestCreate_InvalidJSON_Returns400(t *testing.T) {
	if w := postJSON(newTestEngine(&fakeLinkUsecase{}), `{bad json}`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreate_MissingUserID_Returns400(t *testing.T) {
	if w := postJSON(newTestEngine(&fakeLinkUsecase{}), `{"redirect":"/a"}`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreate_TTLTooShort_Returns400(t *testing.T) {
	w := postJSON(newTestEngine(&fakeLinkUsecase{}), `{"user_id":"42","ttl_seconds":5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreate_Issues_Returns201(t *testing.T) {
	var gotUser, gotRedirect string
	var gotTTL time.Duration
	uc := &fakeLinkUsecase{
		issue: func(_ context.Context, userID, redirect string, ttl time.Duration) (string, error) {
			gotUser, gotRedirect, gotTTL = userID, redirect, ttl
			return "https://site/ab12/tok", nil
		},
	}

	w := postJSON(newTestEngine(uc), `{"user_id":"42","redirect":"/account","ttl_seconds":3600}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if got := decodeURL(t, w); got != "https://site/ab12/tok" {
		t.Errorf("url = %q", got)
	}
	if gotUser != "42" || gotRedirect != "/account" || gotTTL != time.Hour {
		t.Errorf("issue called with (%q, %q, %v)", gotUser, gotRedirect, gotTTL)
	}
}

func TestCreate_NoTTL_PassesZero(t *testing.T) {
	gotTTL := time.Duration(-1)
	uc := &fakeLinkUsecase{
		issue: func(_ context.Context, _, _ string, ttl time.Duration) (string, error) {
			gotTTL = ttl
			return "https://site/ab12/tok", nil
		},
	}

	postJSON(newTestEngine(uc), `{"user_id":"42"}`)

	if gotTTL != 0 {
		t.Errorf("ttl = %v, want 0 so the configured default applies", gotTTL)
	}
}

func TestCreate_SendEmail_Returns202(t *testing.T) {
	sent := false
	uc := &fakeLinkUsecase{
		send: func(context.Context, string, string, time.Duration) (string, error) {
			sent = true
			return "https://site/ab12/tok", nil
		},
	}

	w := postJSON(newTestEngine(uc), `{"user_id":"42","send_email":true}`)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if !sent {
		t.Error("expected Send to be called")
	}
}

func TestCreate_UnknownUser_Returns404(t *testing.T) {
	uc := &fakeLinkUsecase{
		send: func(context.Context, string, string, time.Duration) (string, error) {
			return "", fmt.Errorf("find user: %w", domain.ErrUserNotFound)
		},
	}

	if w := postJSON(newTestEngine(uc), `{"user_id":"404","send_email":true}`); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreate_InvalidInput_Returns400(t *testing.T) {
	uc := &fakeLinkUsecase{
		send: func(context.Context, string, string, time.Duration) (string, error) {
			return "", fmt.Errorf("%w: user has no email address", domain.ErrInvalidInput)
		},
	}

	if w := postJSON(newTestEngine(uc), `{"user_id":"42","send_email":true}`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreate_UsecaseError_Returns500(t *testing.T) {
	uc := &fakeLinkUsecase{
		issue: func(context.Context, string, string, time.Duration) (string, error) {
			return "", errors.New("store down")
		},
	}

	w := postJSON(newTestEngine(uc), `{"user_id":"42"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "store down") {
		t.Error("internal error details must not leak")
	}
}

// ---- Lookup ----

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestLookup_MissingUserID_Returns400(t *testing.T) {
	if w := get(newTestEngine(&fakeLinkUsecase{}), "/api/links"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLookup_Found_Returns200(t *testing.T) {
	var gotUser, gotRedirect string
	uc := &fakeLinkUsecase{
		lookup: func(_ context.Context, userID, redirect string) (string, error) {
			gotUser, gotRedirect = userID, redirect
			return "https://site/ab12/tok", nil
		},
	}

	w := get(newTestEngine(uc), "/api/links?user_id=42&redirect=%2Faccount")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := decodeURL(t, w); got != "https://site/ab12/tok" {
		t.Errorf("url = %q", got)
	}
	if gotUser != "42" || gotRedirect != "/account" {
		t.Errorf("lookup called with (%q, %q)", gotUser, gotRedirect)
	}
}

func TestLookup_NotFound_Returns404(t *testing.T) {
	uc := &fakeLinkUsecase{
		lookup: func(context.Context, string, string) (string, error) {
			return "", domain.ErrLinkNotFound
		},
	}

	if w := get(newTestEngine(uc), "/api/links?user_id=42"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestLookup_UsecaseError_Returns500(t *testing.T) {
	uc := &fakeLinkUsecase{
		lookup: func(context.Context, string, string) (string, error) {
			return "", errors.New("boom")
		},
	}

	if w := get(newTestEngine(uc), "/api/links?user_id=42"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestNotFound_ReturnsJSON404(t *testing.T) {
	w := get(newTestEngine(&fakeLinkUsecase{}), "/nowhere")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
}
