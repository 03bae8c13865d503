package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/middleware"
	"github.com/collabwave/collabwave/internal/plugins/auth"
)

// --- Mock Auth Service ---

// mockAuthService implements auth.AuthService with fixed bearer tokens.
type mockAuthService struct {
	sessions map[string]*auth.Session
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*auth.Session, error) {
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	return nil, apperror.NewUnauthorized("session expired or invalid")
}

func (m *mockAuthService) CreateSession(ctx context.Context, user *auth.User) (string, error) {
	return "", apperror.NewInternal(nil)
}

func (m *mockAuthService) DisplayName(ctx context.Context, userID string) (string, error) {
	for _, s := range m.sessions {
		if s.UserID == userID {
			return s.Name, nil
		}
	}
	return "", apperror.NewNotFound("user not found")
}

const (
	adminToken  = "admin-token"
	memberToken = "member-token"
)

// --- Test Harness ---

type handlerHarness struct {
	e        *echo.Echo
	repo     *MemoryRepository
	recorder *Recorder
}

func newHandlerHarness(t *testing.T) *handlerHarness {
	t.Helper()

	authSvc := &mockAuthService{sessions: map[string]*auth.Session{
		adminToken:  {UserID: "u-admin", Name: "Ada", IsAdmin: true},
		memberToken: {UserID: "u-member", Name: "Alice"},
	}}

	repo := NewMemoryRepository()
	recorder := NewRecorder(repo, authSvc, nil, RecorderConfig{Workers: 1})
	t.Cleanup(func() { _ = recorder.Close(context.Background()) })

	h := NewHandler(NewActivityService(repo, nil), recorder, nil, 0)

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	RegisterRoutes(e, h, authSvc)

	return &handlerHarness{e: e, repo: repo, recorder: recorder}
}

func (hh *handlerHarness) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	req.Header.Set("User-Agent", "handler-test")

	rec := httptest.NewRecorder()
	hh.e.ServeHTTP(rec, req)
	return rec
}

// flush waits for queued events to be stored.
func (hh *handlerHarness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, hh.recorder.Close(ctx))
}

func (hh *handlerHarness) append(t *testing.T, actorID string, action ActionKind, text string) {
	t.Helper()
	require.NoError(t, hh.repo.Append(context.Background(), &Record{
		ActorID: actorID, EntityKind: EntityTask, ActionKind: action, Text: text,
	}))
}

// --- ListLogs ---

func TestListLogs_ReturnsPageWithStats(t *testing.T) {
	hh := newHandlerHarness(t)
	hh.append(t, "u-member", ActionCreate, "The task [Plan] was created by [Alice]")
	hh.append(t, "u-member", ActionEdit, "The task [Plan] was modified by [Alice]")
	hh.append(t, "u-other", ActionNavigation, "[Bob] navigated to [Dashboard]")

	rec := hh.do(t, http.MethodGet, "/api/admin/user-activity?userId=u-member&limit=1", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Logs, 1)
	assert.Equal(t, ActionEdit, resp.Logs[0].ActionKind)
	assert.Equal(t, []Segment{
		{SegmentLiteral, "The task "},
		{SegmentEntity, "Plan"},
		{SegmentLiteral, " was modified by "},
		{SegmentActor, "Alice"},
	}, resp.Logs[0].Segments)

	assert.Equal(t, pagination{Page: 1, Limit: 1, Total: 2, TotalPages: 2}, resp.Pagination)

	// Stats ignore the userId filter.
	assert.Equal(t, 1, resp.Stats[ActionCreate])
	assert.Equal(t, 1, resp.Stats[ActionEdit])
	assert.Equal(t, 1, resp.Stats[ActionNavigation])
	assert.Equal(t, 0, resp.Stats[ActionDelete])
	assert.Equal(t, 2, resp.ActiveUsers)
}

func TestListLogs_RequiresSiteAdmin(t *testing.T) {
	hh := newHandlerHarness(t)

	assert.Equal(t, http.StatusUnauthorized, hh.do(t, http.MethodGet, "/api/admin/user-activity", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, hh.do(t, http.MethodGet, "/api/admin/user-activity", "bogus", "").Code)
	assert.Equal(t, http.StatusForbidden, hh.do(t, http.MethodGet, "/api/admin/user-activity", memberToken, "").Code)
}

func TestListLogs_RejectsBadFilters(t *testing.T) {
	hh := newHandlerHarness(t)

	for _, query := range []string{
		"action=archive",
		"startDate=yesterday",
		"endDate=2026-13-01",
		"startDate=2026-05-02&endDate=2026-05-01",
	} {
		rec := hh.do(t, http.MethodGet, "/api/admin/user-activity?"+query, adminToken, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestParseDate(t *testing.T) {
	start, err := parseDate("2026-05-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), start)

	end, err := parseDate("2026-05-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)

	rfc, err := parseDate("2026-05-01T10:00:00+02:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), rfc)

	zero, err := parseDate("  ", false)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

// --- Summary & Cleanup ---

func TestSummaryEndpoint(t *testing.T) {
	hh := newHandlerHarness(t)
	hh.append(t, "u-member", ActionDelete, "The task [Plan] was deleted by [Alice]")

	rec := hh.do(t, http.MethodGet, "/api/admin/user-activity/summary", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Counts[ActionDelete])
	assert.Equal(t, 1, summary.ActiveActors)
	assert.Len(t, summary.Recent, 1)
}

func TestCleanupEndpoint(t *testing.T) {
	hh := newHandlerHarness(t)

	hh.repo.SetClock(func() time.Time { return time.Now().UTC().Add(-100 * 24 * time.Hour) })
	hh.append(t, "u-member", ActionCreate, "old")
	hh.repo.SetClock(func() time.Time { return time.Now().UTC().Add(-10 * 24 * time.Hour) })
	hh.append(t, "u-member", ActionCreate, "recent")

	rec := hh.do(t, http.MethodDelete, "/api/admin/user-activity?olderThanDays=abc", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hh.do(t, http.MethodDelete, "/api/admin/user-activity", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = hh.do(t, http.MethodDelete, "/api/admin/user-activity?olderThanDays=7", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
	assert.Equal(t, 0, hh.repo.Len())

	assert.Equal(t, http.StatusForbidden, hh.do(t, http.MethodDelete, "/api/admin/user-activity", memberToken, "").Code)
}

// --- Track ---

func TestTrack_RecordsNavigation(t *testing.T) {
	hh := newHandlerHarness(t)

	rec := hh.do(t, http.MethodPost, "/api/user-activity", memberToken,
		`{"typeLog":"Navigation","element":"ignored","details":{"path":"/dashboard"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Activity recorded", resp.Message)
	assert.Equal(t, "[Alice] navigated to [Dashboard]", resp.TextLog)
	assert.Equal(t, "/dashboard", resp.Element)

	hh.flush(t)
	records, _, err := hh.repo.List(context.Background(), Filter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u-member", records[0].ActorID)
	assert.Equal(t, ActionNavigation, records[0].ActionKind)
	assert.Equal(t, "/dashboard", records[0].EntityKind)
	assert.Equal(t, resp.TextLog, records[0].Text)
	assert.Equal(t, "198.51.100.4", records[0].RequestIP)
	assert.Equal(t, "handler-test", records[0].RequestAgent)
}

func TestTrack_AcceptsLegacyActionField(t *testing.T) {
	hh := newHandlerHarness(t)

	rec := hh.do(t, http.MethodPost, "/api/user-activity", memberToken,
		`{"action":"navigation","element":"<b>/profile</b>"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/profile", resp.Element)
	assert.Equal(t, "[Alice] navigated to [Profile]", resp.TextLog)
}

func TestTrack_RejectsBadInput(t *testing.T) {
	hh := newHandlerHarness(t)

	tests := []struct {
		name  string
		token string
		body  string
		want  int
	}{
		{"no session", "", `{"typeLog":"navigation"}`, http.StatusUnauthorized},
		{"missing type", memberToken, `{"element":"/x"}`, http.StatusBadRequest},
		{"unknown type", memberToken, `{"typeLog":"archive"}`, http.StatusBadRequest},
		{"malformed json", memberToken, `{"typeLog":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := hh.do(t, http.MethodPost, "/api/user-activity", tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	hh.flush(t)
	assert.Equal(t, 0, hh.repo.Len())
}

// --- HTML page ---

func TestActivityPage_RendersAndTracksItself(t *testing.T) {
	hh := newHandlerHarness(t)
	hh.append(t, "u-member", ActionCreate, `The task [<script>] was created by [Alice]`)

	rec := hh.do(t, http.MethodGet, "/admin/activity", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<span class="token token-entity">&lt;script&gt;</span>`)
	assert.Contains(t, body, `<span class="token token-actor">Alice</span>`)
	assert.NotContains(t, body, "<script>")

	hh.flush(t)
	records, _, err := hh.repo.List(context.Background(), Filter{ActionKind: ActionNavigation}, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u-admin", records[0].ActorID)
	assert.Equal(t, "[Ada] navigated to [Activities]", records[0].Text)
}

func TestActivityPage_ForbiddenForMembers(t *testing.T) {
	hh := newHandlerHarness(t)

	rec := hh.do(t, http.MethodGet, "/admin/activity", memberToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	hh.flush(t)
	assert.Equal(t, 0, hh.repo.Len())
}

// --- Provenance ---

func TestRequestInfoFromHeaders(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, RequestInfo{IP: "unknown", UserAgent: "unknown"}, RequestInfoFromHeaders(h))

	h.Set("X-Real-Ip", "192.0.2.9")
	h.Set("User-Agent", "curl/8")
	assert.Equal(t, RequestInfo{IP: "192.0.2.9", UserAgent: "curl/8"}, RequestInfoFromHeaders(h))

	h.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.2")
	assert.Equal(t, "203.0.113.1", RequestInfoFromHeaders(h).IP)
}

func TestRequestInfoFromHeaders_IgnoresProxyTrust(t *testing.T) {
	e := echo.New()
	middleware.TrustedProxies(e, []string{"10.0.0.0/8"})

	var realIP string
	var info RequestInfo
	e.GET("/whoami", func(c echo.Context) error {
		realIP = c.RealIP()
		info = RequestInfoFromHeaders(c.Request().Header)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.RemoteAddr = "198.51.100.1:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	e.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.1", realIP, "untrusted peer must not steer RealIP")
	assert.Equal(t, "203.0.113.7", info.IP, "audit provenance keeps the header as sent")
}
