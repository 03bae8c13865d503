package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/collabwave/collabwave/internal/apperror"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	findDisplayNameFn func(ctx context.Context, id string) (string, error)
}

func (m *mockUserRepo) FindDisplayName(ctx context.Context, id string) (string, error) {
	if m.findDisplayNameFn != nil {
		return m.findDisplayNameFn(ctx, id)
	}
	return "", apperror.NewNotFound("user not found")
}

// --- Test Helpers ---

// newTestAuthService creates an authService backed by an in-process Redis.
func newTestAuthService(t *testing.T, repo *mockUserRepo) (*authService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &authService{
		repo:       repo,
		redis:      rdb,
		sessionTTL: time.Hour,
	}, mr
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

var testUser = &User{ID: "u-1", Email: "alice@example.com", DisplayName: "Alice", IsAdmin: true}

// --- Session Tests ---

func TestCreateSession_StoresWithTTL(t *testing.T) {
	svc, mr := newTestAuthService(t, &mockUserRepo{})

	token, err := svc.CreateSession(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != sessionTokenBytes*2 {
		t.Errorf("expected %d-char token, got %d", sessionTokenBytes*2, len(token))
	}

	if mr.Exists(sessionKeyPrefix + token) {
		t.Error("raw token must not be used as a key")
	}
	key := sessionKey(token)
	if !mr.Exists(key) {
		t.Fatalf("expected key %s to exist", key)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Errorf("expected TTL 1h, got %s", ttl)
	}
}

func TestValidateSession_RoundTrip(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	ctx := context.Background()

	token, err := svc.CreateSession(ctx, testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != "u-1" || session.Name != "Alice" || !session.IsAdmin {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestValidateSession_Missing(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})

	_, err := svc.ValidateSession(context.Background(), "nope")
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestValidateSession_Expired(t *testing.T) {
	svc, mr := newTestAuthService(t, &mockUserRepo{})
	ctx := context.Background()

	token, err := svc.CreateSession(ctx, testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	_, err = svc.ValidateSession(ctx, token)
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestValidateSession_CorruptPayload(t *testing.T) {
	svc, mr := newTestAuthService(t, &mockUserRepo{})
	if err := mr.Set(sessionKey("bad"), "{not json"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ValidateSession(context.Background(), "bad")
	assertAppError(t, err, http.StatusInternalServerError)
}

func TestValidateSession_MissingUserID(t *testing.T) {
	svc, mr := newTestAuthService(t, &mockUserRepo{})
	data, _ := json.Marshal(Session{Email: "x@example.com"})
	if err := mr.Set(sessionKey("anon"), string(data)); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ValidateSession(context.Background(), "anon")
	assertAppError(t, err, http.StatusUnauthorized)
}

// --- DisplayName Tests ---

func TestDisplayName_Found(t *testing.T) {
	repo := &mockUserRepo{
		findDisplayNameFn: func(ctx context.Context, id string) (string, error) {
			if id != "u-1" {
				t.Errorf("unexpected id %q", id)
			}
			return testUser.DisplayName, nil
		},
	}
	svc, _ := newTestAuthService(t, repo)

	name, err := svc.DisplayName(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
}

func TestDisplayName_NotFound(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})

	_, err := svc.DisplayName(context.Background(), "ghost")
	assertAppError(t, err, http.StatusNotFound)
}

// --- Middleware Tests ---

func runMiddleware(t *testing.T, req *http.Request, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, *Session) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Session
	h := func(c echo.Context) error {
		seen = GetSession(c)
		return c.NoContent(http.StatusOK)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	return rec, seen
}

func TestRequireAuth_BearerToken(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	token, err := svc.CreateSession(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, session := runMiddleware(t, req, RequireAuth(svc))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if session == nil || session.UserID != "u-1" {
		t.Errorf("expected session for u-1, got %+v", session)
	}
}

func TestRequireAuth_Cookie(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	token, err := svc.CreateSession(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/activity", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec, session := runMiddleware(t, req, RequireAuth(svc))

	if rec.Code != http.StatusOK || session == nil {
		t.Fatalf("expected authenticated 200, got %d", rec.Code)
	}
}

func TestRequireAuth_APIWithoutToken(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	rec, _ := runMiddleware(t, req, RequireAuth(svc))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_BrowserRedirect(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/admin/activity", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec, _ := runMiddleware(t, req, RequireAuth(svc))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSiteAdmin_Forbidden(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	member := &User{ID: "u-2", DisplayName: "Bob"}
	token, err := svc.CreateSession(context.Background(), member)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/user-activity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, _ := runMiddleware(t, req, RequireAuth(svc), RequireSiteAdmin())

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
