package activity

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/middleware"
	"github.com/collabwave/collabwave/internal/plugins/auth"
	"github.com/collabwave/collabwave/internal/sanitize"
)

// dateOnly is the layout of bare-date query parameters.
const dateOnly = "2006-01-02"

// statsWindow is the period covered by the stats block of the list
// endpoint.
const statsWindow = 24 * time.Hour

// Handler handles HTTP requests for the activity trail. Handlers are thin:
// bind request, call service or recorder, render response.
type Handler struct {
	service   ActivityService
	recorder  *Recorder
	gen       *Generator
	retention time.Duration
	now       func() time.Time
}

// NewHandler creates a new activity handler. retention is the default age
// for the cleanup endpoint when the request does not supply one.
func NewHandler(service ActivityService, recorder *Recorder, gen *Generator, retention time.Duration) *Handler {
	if gen == nil {
		gen = defaultGenerator
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Handler{
		service:   service,
		recorder:  recorder,
		gen:       gen,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// logView is a record as served to the admin UI, with its text already
// split into highlighted segments.
type logView struct {
	Record
	Segments []Segment `json:"segments"`
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type listResponse struct {
	Logs        []logView          `json:"logs"`
	Pagination  pagination         `json:"pagination"`
	Stats       map[ActionKind]int `json:"stats"`
	ActiveUsers int                `json:"activeUsers"`
}

// ListLogs returns a filtered page of activity (GET /api/admin/user-activity).
// Query parameters: userId, action, startDate, endDate, page, limit. The
// stats block and activeUsers cover the last 24 hours regardless of the
// filters.
func (h *Handler) ListLogs(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	page, limit := parsePaging(c)

	ctx := c.Request().Context()
	result, err := h.service.List(ctx, f, page, limit)
	if err != nil {
		return err
	}

	now := h.now()
	window := Filter{From: now.Add(-statsWindow), To: now}

	stats, err := h.service.CountByActionKind(ctx, window)
	if err != nil {
		return err
	}
	active, err := h.service.CountDistinctActors(ctx, window)
	if err != nil {
		return err
	}

	logs := make([]logView, 0, len(result.Records))
	for _, rec := range result.Records {
		logs = append(logs, logView{Record: rec, Segments: HighlightTokens(rec.Text)})
	}

	return c.JSON(http.StatusOK, listResponse{
		Logs: logs,
		Pagination: pagination{
			Page:       result.Page,
			Limit:      result.PageSize,
			Total:      result.TotalCount,
			TotalPages: result.TotalPages,
		},
		Stats:       stats,
		ActiveUsers: active,
	})
}

// Summary returns the dashboard summary (GET /api/admin/user-activity/summary).
func (h *Handler) Summary(c echo.Context) error {
	summary, err := h.service.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Cleanup deletes old records (DELETE /api/admin/user-activity). The
// olderThanDays parameter defaults to the configured retention.
func (h *Handler) Cleanup(c echo.Context) error {
	olderThan := h.retention
	if raw := c.QueryParam("olderThanDays"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			return apperror.NewBadRequest("olderThanDays must be a positive integer")
		}
		olderThan = time.Duration(days) * 24 * time.Hour
	}

	deleted, err := h.service.Cleanup(c.Request().Context(), olderThan)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// trackRequest is the body of POST /api/user-activity. typeLog is the
// current field name; action is accepted from older clients.
type trackRequest struct {
	TypeLog string `json:"typeLog"`
	Action  string `json:"action"`
	Element string `json:"element"`
	Details struct {
		Path string `json:"path"`
	} `json:"details"`
}

type trackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TextLog string `json:"textLog"`
	Element string `json:"element"`
}

// Track records an event reported by the browser (POST /api/user-activity),
// usually a page view. The generated text is returned so the client can
// show it immediately; storage happens in the background.
func (h *Handler) Track(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	var req trackRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	raw := req.TypeLog
	if raw == "" {
		raw = req.Action
	}
	if strings.TrimSpace(raw) == "" {
		return apperror.NewBadRequest("typeLog or action is required")
	}
	action, ok := ParseActionKind(raw)
	if !ok {
		return apperror.NewBadRequest("invalid action type")
	}

	element := sanitize.Text(req.Element)
	if action == ActionNavigation && req.Details.Path != "" {
		element = sanitize.Text(req.Details.Path)
	}
	if element == "" {
		element = EntityNavigation
	}

	text := h.gen.Generate(element, action, session.Name, nil, nil)
	h.recorder.Record(c.Request().Context(), Event{
		Actor:      Actor{ID: session.UserID, Name: session.Name},
		EntityKind: element,
		Action:     action,
		Request:    RequestInfoFromHeaders(c.Request().Header),
		Text:       text,
	})

	return c.JSON(http.StatusOK, trackResponse{
		Success: true,
		Message: "Activity recorded",
		TextLog: text,
		Element: element,
	})
}

// ActivityPage renders the server-side audit trail (GET /admin/activity).
// It accepts the same filters as ListLogs.
func (h *Handler) ActivityPage(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	page, limit := parsePaging(c)

	ctx := c.Request().Context()
	result, err := h.service.List(ctx, f, page, limit)
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(ctx)
	if err != nil {
		return err
	}

	data := pageData{
		Result:  result,
		Summary: summary,
		Filter:  f,
		Query:   c.QueryParams(),
	}
	return middleware.Render(c, http.StatusOK, activityPage(data))
}

// parseFilter reads userId, action, startDate and endDate. Dates are either
// YYYY-MM-DD or RFC 3339; a bare endDate covers that whole day.
func parseFilter(c echo.Context) (Filter, error) {
	var f Filter

	f.ActorID = strings.TrimSpace(c.QueryParam("userId"))

	if raw := strings.TrimSpace(c.QueryParam("action")); raw != "" {
		action, ok := ParseActionKind(raw)
		if !ok {
			return Filter{}, apperror.NewBadRequest("unknown action kind: " + raw)
		}
		f.ActionKind = action
	}

	var err error
	if f.From, err = parseDate(c.QueryParam("startDate"), false); err != nil {
		return Filter{}, apperror.NewBadRequest("invalid startDate, expected YYYY-MM-DD or RFC 3339")
	}
	if f.To, err = parseDate(c.QueryParam("endDate"), true); err != nil {
		return Filter{}, apperror.NewBadRequest("invalid endDate, expected YYYY-MM-DD or RFC 3339")
	}

	return f, nil
}

// parseDate parses a date parameter. An empty value yields the zero time.
// With endOfDay set, a bare date resolves to its last millisecond in UTC.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(dateOnly, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parsePaging reads page and limit. Unparseable values fall through to the
// service defaults.
func parsePaging(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}
