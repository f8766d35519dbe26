package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

type conversationRequest struct {
	Date string `json:"date"`
}

type snoozeRequest struct {
	Days int `json:"days"`
}

type monthResponse struct {
	Window engine.Window                     `json:"window"`
	Events []engine.Event                    `json:"events"`
	Days   map[engine.DateKey][]engine.Event `json:"days"`
}

type yearSummary struct {
	Year   int                     `json:"year"`
	Months [12]engine.MonthSummary `json:"months"`
}

type dayResponse struct {
	Date   engine.DateKey `json:"date"`
	Events []engine.Event `json:"events"`
}

type yearResponse struct {
	Window engine.Window `json:"window"`
	Years  []yearSummary `json:"years"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompAPI,
			config.LogKeyError, err,
		)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeFailure maps domain errors onto HTTP status codes.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidContact):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, config.ErrNotFound)
	default:
		slog.Error(config.MsgRequestFailed,
			config.LogKeyComponent, config.CompAPI,
			config.LogKeyMethod, r.Method,
			config.LogKeyPath, r.URL.Path,
			config.LogKeyError, err,
		)
		writeError(w, http.StatusInternalServerError, config.HTTPMsgInternalErr)
	}
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", config.ErrInvalidBody, err))
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", config.ErrInvalidQuery, name, err)
	}
	return v, nil
}

func (s *Server) now() time.Time {
	return s.opts.Clock.Now()
}

func (s *Server) calendarOptions() engine.Options {
	return engine.Options{LeapDay: s.opts.LeapDay}
}

// handleListContacts lists every contact, or only those whose next reminder
// has the status named by ?status=.
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	var want engine.Status
	filter := r.URL.Query().Has(config.QueryStatus)
	if filter {
		if err := want.UnmarshalText([]byte(r.URL.Query().Get(config.QueryStatus))); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	contacts, err := s.store.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if filter {
		now := s.now()
		matched := []engine.Contact{}
		for _, c := range contacts {
			if engine.Classify(c, now, s.opts.Horizon) == want {
				matched = append(matched, c)
			}
		}
		contacts = matched
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var c engine.Contact
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = ""
	if err := engine.Validate(c); err != nil {
		writeFailure(w, r, err)
		return
	}
	created, err := s.store.Create(r.Context(), c)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.refreshAfterMutation(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var c engine.Contact
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = r.PathValue("id")
	if err := engine.Validate(c); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.save(w, r, c, http.StatusOK)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.refreshAfterMutation(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleConversation records a conversation at the given date, or now.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	now := s.now()
	at := now
	if req.Date != "" {
		t, err := engine.ParseInstant(req.Date, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s %q", config.ErrDateParse, req.Date))
			return
		}
		at = t
	}

	c, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	c, err = engine.RecordConversation(c, at)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.save(w, r, c, http.StatusOK)
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	var req snoozeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	c, err = engine.Snooze(c, req.Days, s.now())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.save(w, r, c, http.StatusOK)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, c engine.Contact, status int) {
	updated, err := s.store.Update(r.Context(), c)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.refreshAfterMutation(r.Context())
	writeJSON(w, status, updated)
}

// handleCalendarMonth returns the events of one month grouped by date.
func (s *Server) handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, err := queryInt(r, config.QueryYear, now.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryInt(r, config.QueryMonth, int(now.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s %q", config.ErrInvalidQuery, config.QueryMonth))
		return
	}

	contacts, err := s.store.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cal := engine.BuildCalendar(contacts, engine.MonthWindow(year, time.Month(month)), now, s.calendarOptions())
	resp := monthResponse{Window: cal.Window, Events: cal.Events, Days: cal.ByDate}
	if resp.Events == nil {
		resp.Events = []engine.Event{}
	}
	if resp.Days == nil {
		resp.Days = map[engine.DateKey][]engine.Event{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendarYear returns per-month counts for a calendar year, or for
// every year touched by the lookahead window when no year is given.
func (s *Server) handleCalendarYear(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	window := engine.LookaheadWindow(now, s.opts.LookaheadYears)
	if r.URL.Query().Has(config.QueryYear) {
		year, err := queryInt(r, config.QueryYear, now.Year())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		window = engine.YearWindow(year)
	}

	contacts, err := s.store.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cal := engine.BuildCalendar(contacts, window, now, s.calendarOptions())
	resp := yearResponse{Window: cal.Window}
	for y := window.Start.Year(); y <= window.End.Year(); y++ {
		resp.Years = append(resp.Years, yearSummary{Year: y, Months: cal.MonthSummaries(y)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendarDay returns the events of one date, today by default.
func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	day := engine.DateOf(now)
	if raw := r.URL.Query().Get(config.QueryDate); raw != "" {
		d, err := engine.ParseDate(raw, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s %q", config.ErrInvalidQuery, config.QueryDate))
			return
		}
		day = d
	}

	contacts, err := s.store.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cal := engine.BuildCalendar(contacts, engine.NewWindow(day, day), now, s.calendarOptions())
	resp := dayResponse{Date: engine.KeyOf(day), Events: cal.On(day)}
	if resp.Events == nil {
		resp.Events = []engine.Event{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	horizon := s.opts.Horizon
	if r.URL.Query().Has(config.QueryHorizonDays) {
		days, err := queryInt(r, config.QueryHorizonDays, 0)
		if err != nil || days < 0 || days > config.MaxReminderDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s %q", config.ErrInvalidQuery, config.QueryHorizonDays))
			return
		}
		horizon = time.Duration(days) * 24 * time.Hour
	}

	contacts, err := s.store.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	d := engine.Partition(contacts, s.now(), horizon, s.opts.LeapDay)
	if d.Overdue == nil {
		d.Overdue = []engine.DueContact{}
	}
	if d.Upcoming == nil {
		d.Upcoming = []engine.DueContact{}
	}
	if d.Birthdays == nil {
		d.Birthdays = []engine.BirthdayItem{}
	}
	writeJSON(w, http.StatusOK, d)
}
