package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/store"
)

func newAPIServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, Options{Clock: fixedClock{fixedNow}, LookaheadYears: 1}), st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAPI_ContactLifecycle(t *testing.T) {
	srv, _ := newAPIServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/api/contacts", `{"name":"Ada","reminder_days":30,"birthday":"1815-12-10","birthday_reminder":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, config.MimeJSON, w.Header().Get(config.HeaderContentType))
	created := decode[engine.Contact](t, w)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Ada", created.Name)
	assert.NotNil(t, srv.cache.Load(), "mutations refresh the feed")

	w = do(t, h, http.MethodPost, "/api/contacts", `{"name":"bob","reminder_days":7}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodGet, "/api/contacts", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]engine.Contact](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada", list[0].Name)
	assert.Equal(t, "bob", list[1].Name)

	w = do(t, h, http.MethodGet, "/api/contacts/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[engine.Contact](t, w))

	w = do(t, h, http.MethodPut, "/api/contacts/"+created.ID, `{"name":"Ada Lovelace","reminder_days":14}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[engine.Contact](t, w)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 14, updated.ReminderDays)
	assert.Empty(t, updated.Birthday, "PUT replaces every field")

	w = do(t, h, http.MethodDelete, "/api/contacts/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/contacts/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, config.ErrNotFound, decode[errorBody](t, w).Error)
}

func TestAPI_Validation(t *testing.T) {
	srv, _ := newAPIServer(t)
	h := srv.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing name", http.MethodPost, "/api/contacts", `{"reminder_days":30}`},
		{"zero interval", http.MethodPost, "/api/contacts", `{"name":"Ada","reminder_days":0}`},
		{"bad birthday", http.MethodPost, "/api/contacts", `{"name":"Ada","reminder_days":3,"birthday":"10/12"}`},
		{"bad last conversation", http.MethodPost, "/api/contacts", `{"name":"Ada","reminder_days":3,"last_conversation":"yesterday"}`},
		{"unknown field", http.MethodPost, "/api/contacts", `{"name":"Ada","reminder_days":3,"nickname":"A"}`},
		{"malformed json", http.MethodPost, "/api/contacts", `{"name":`},
		{"invalid put", http.MethodPut, "/api/contacts/x", `{"name":"","reminder_days":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[errorBody](t, w).Error)
		})
	}
}

func TestAPI_NotFound(t *testing.T) {
	srv, _ := newAPIServer(t)
	h := srv.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/contacts/missing", `{"name":"Ada","reminder_days":3}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/contacts/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/contacts/missing/conversation", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/contacts/missing/snooze", `{"days":3}`).Code)
}

func TestAPI_Conversation(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	c, err := st.Create(context.Background(), engine.Contact{Name: "Ada", ReminderDays: 30})
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/api/contacts/"+c.ID+"/conversation", `{"date":"2025-01-05"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[engine.Contact](t, w)
	assert.Equal(t, "2025-01-05", got.LastConversation)
	assert.Equal(t, "2025-02-04", got.NextReminder)

	// No body records the conversation today.
	w = do(t, h, http.MethodPost, "/api/contacts/"+c.ID+"/conversation", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = decode[engine.Contact](t, w)
	assert.Equal(t, "2025-01-10", got.LastConversation)
	assert.Equal(t, "2025-02-09", got.NextReminder)

	stored, err := st.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	w = do(t, h, http.MethodPost, "/api/contacts/"+c.ID+"/conversation", `{"date":"someday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_Snooze(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	c, err := st.Create(context.Background(), engine.Contact{Name: "Ada", ReminderDays: 30, NextReminder: "2025-01-01"})
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/api/contacts/"+c.ID+"/snooze", `{"days":7}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2025-01-17", decode[engine.Contact](t, w).NextReminder)

	w = do(t, h, http.MethodPost, "/api/contacts/"+c.ID+"/snooze", `{"days":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/contacts/"+c.ID+"/snooze", `{"days":366}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_CalendarMonth(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	_, err := st.Create(context.Background(), engine.Contact{Name: "Ada", ReminderDays: 31, LastConversation: "2024-12-01"})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/api/calendar/month?year=2025&month=1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[monthResponse](t, w)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, engine.EventReminder, resp.Events[0].Type)
	assert.Len(t, resp.Days["2025-01-01"], 1)

	// Defaults to the month of now.
	w = do(t, h, http.MethodGet, "/api/calendar/month", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[monthResponse](t, w)
	assert.True(t, resp.Window.Start.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))

	w = do(t, h, http.MethodGet, "/api/calendar/month?year=2024&month=6", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events":[]`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/calendar/month?month=13", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/calendar/month?year=abc", "").Code)
}

func TestAPI_CalendarMonth_AncientAnchor(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	_, err := st.Create(context.Background(), engine.Contact{Name: "Ada", ReminderDays: 1, NextReminder: "1700-01-01"})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/api/calendar/month?year=2024&month=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[monthResponse](t, w)
	require.Len(t, resp.Events, 31)
	for _, e := range resp.Events {
		assert.True(t, resp.Window.Contains(e.Date), "event %s outside May", e.Key())
	}

	w = do(t, h, http.MethodGet, "/api/calendar/year?year=2024", "")
	require.Equal(t, http.StatusOK, w.Code)
	year := decode[yearResponse](t, w)
	require.Len(t, year.Years, 1)
	assert.Equal(t, len(resp.Events), year.Years[0].Months[time.May-1].Reminders, "month view and year summary agree")
}

func TestAPI_CalendarDay(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	_, err := st.Create(context.Background(), engine.Contact{Name: "Ada", ReminderDays: 31, LastConversation: "2024-12-01"})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/api/calendar/day?date=2025-02-01", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dayResponse](t, w)
	assert.Equal(t, engine.DateKey("2025-02-01"), resp.Date)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Ada", resp.Events[0].Contact.Name)

	w = do(t, h, http.MethodGet, "/api/calendar/day?date=2025-02-02", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events":[]`)

	// Defaults to today.
	w = do(t, h, http.MethodGet, "/api/calendar/day", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.DateKey("2025-01-10"), decode[dayResponse](t, w).Date)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/calendar/day?date=tomorrow", "").Code)
}

func TestAPI_ContactsByStatus(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	ctx := context.Background()
	for _, c := range []engine.Contact{
		{Name: "Late", ReminderDays: 7, NextReminder: "2025-01-05"},
		{Name: "Soon", ReminderDays: 7, NextReminder: "2025-01-12"},
		{Name: "Unplanned", ReminderDays: 7},
	} {
		_, err := st.Create(ctx, c)
		require.NoError(t, err)
	}

	tests := []struct {
		status string
		want   []string
	}{
		{"overdue", []string{"Late"}},
		{"upcoming", []string{"Soon"}},
		{"none", []string{"Unplanned"}},
		{"future", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/contacts?status="+tt.status, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			names := []string{}
			for _, c := range decode[[]engine.Contact](t, w) {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	w := do(t, h, http.MethodGet, "/api/contacts?status=someday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Error, config.ErrUnknownStatus)
}

func TestAPI_CalendarYear(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	_, err := st.Create(context.Background(), engine.Contact{
		Name:             "Ada",
		ReminderDays:     31,
		LastConversation: "2024-12-01",
		Birthday:         "1815-12-10",
		BirthdayReminder: true,
	})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/api/calendar/year?year=2025", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[yearResponse](t, w)
	require.Len(t, resp.Years, 1)
	months := resp.Years[0].Months
	for i, m := range months {
		assert.Equal(t, 1, m.Reminders, "month %d", i+1)
	}
	assert.Equal(t, 1, months[11].Birthdays)
	assert.Equal(t, 0, months[0].Birthdays)

	// Without a year, the lookahead window spans two calendar years.
	w = do(t, h, http.MethodGet, "/api/calendar/year", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[yearResponse](t, w)
	require.Len(t, resp.Years, 2)
	assert.Equal(t, 2025, resp.Years[0].Year)
	assert.Equal(t, 2026, resp.Years[1].Year)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/calendar/year?year=next", "").Code)
}

func TestAPI_Dashboard(t *testing.T) {
	srv, st := newAPIServer(t)
	h := srv.Handler()
	ctx := context.Background()
	for _, c := range []engine.Contact{
		{Name: "Late", ReminderDays: 7, NextReminder: "2025-01-05"},
		{Name: "Soon", ReminderDays: 7, NextReminder: "2025-01-12"},
		{Name: "Later", ReminderDays: 7, NextReminder: "2025-03-01"},
		{Name: "Party", ReminderDays: 90, NextReminder: "2025-06-01", Birthday: "1990-01-15", BirthdayReminder: true},
	} {
		_, err := st.Create(ctx, c)
		require.NoError(t, err)
	}

	w := do(t, h, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[engine.Dashboard](t, w)
	require.Len(t, d.Overdue, 1)
	assert.Equal(t, "Late", d.Overdue[0].Contact.Name)
	require.Len(t, d.Upcoming, 1)
	assert.Equal(t, "Soon", d.Upcoming[0].Contact.Name)
	require.Len(t, d.Birthdays, 1)
	assert.Equal(t, "Party", d.Birthdays[0].Contact.Name)

	w = do(t, h, http.MethodGet, "/api/dashboard?horizon_days=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"upcoming":[]`)
	assert.Contains(t, w.Body.String(), `"birthdays":[]`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/dashboard?horizon_days=-1", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/dashboard?horizon_days=3650", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/dashboard?horizon_days=3651", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/dashboard?horizon_days=9223372036854775807", "").Code)
}

func TestAPI_StoreFailure(t *testing.T) {
	ms := &memStore{err: errors.New("disk on fire")}
	h := New(ms, Options{Clock: fixedClock{fixedNow}}).Handler()

	w := do(t, h, http.MethodGet, "/api/contacts", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, config.HTTPMsgInternalErr, decode[errorBody](t, w).Error, "internal details are not leaked")
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newAPIServer(t)
	w := do(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, config.HTTPMsgHealthy, w.Body.String())
}
