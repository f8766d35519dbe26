package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/i18n"
)

// ContactStore is the persistence used by the API.
type ContactStore interface {
	List(ctx context.Context) ([]engine.Contact, error)
	Get(ctx context.Context, id string) (engine.Contact, error)
	Create(ctx context.Context, c engine.Contact) (engine.Contact, error)
	Update(ctx context.Context, c engine.Contact) (engine.Contact, error)
	Delete(ctx context.Context, id string) error
}

// Options configures a Server.
type Options struct {
	Listen string

	// Clock supplies "now" for every request. Defaults to engine.RealClock.
	Clock engine.Clock

	// LookaheadYears bounds the ICS feed and the default yearly view.
	LookaheadYears int

	// Horizon is the default dashboard window.
	Horizon time.Duration

	LeapDay      engine.LeapDayPolicy
	AlarmTrigger string

	// Translator localizes feed event titles. Nil uses English fallbacks.
	Translator *i18n.Translator

	// Auth protects the API and the feed. Nil disables authentication.
	Auth *Authenticator
}

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Server exposes the contact API and the ICS feed.
type Server struct {
	// cache uses atomic.Pointer for lock-free reads: the feed is polled often
	// but only rebuilt on refresh or mutation.
	cache atomic.Pointer[cacheItem]

	store ContactStore
	opts  Options
}

// New creates a server backed by store.
func New(store ContactStore, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = engine.RealClock{}
	}
	if opts.LookaheadYears <= 0 {
		opts.LookaheadYears = config.DefaultLookaheadYrs
	}
	if opts.Horizon <= 0 {
		opts.Horizon = engine.DashboardHorizon
	}
	return &Server{store: store, opts: opts}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc(config.RouteContacts, s.handleListContacts)
	api.HandleFunc(config.RouteContactCreate, s.handleCreateContact)
	api.HandleFunc(config.RouteContactGet, s.handleGetContact)
	api.HandleFunc(config.RouteContactPut, s.handleUpdateContact)
	api.HandleFunc(config.RouteContactDelete, s.handleDeleteContact)
	api.HandleFunc(config.RouteConversation, s.handleConversation)
	api.HandleFunc(config.RouteSnooze, s.handleSnooze)
	api.HandleFunc(config.RouteCalendarMonth, s.handleCalendarMonth)
	api.HandleFunc(config.RouteCalendarYear, s.handleCalendarYear)
	api.HandleFunc(config.RouteCalendarDay, s.handleCalendarDay)
	api.HandleFunc(config.RouteDashboard, s.handleDashboard)
	api.HandleFunc(config.RouteFeed, s.handleCalendarRequest)

	root := http.NewServeMux()
	root.HandleFunc(config.RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, config.HTTPMsgHealthy)
	})
	root.Handle("/", s.opts.Auth.Middleware(api))
	return root
}

// Start listens on Options.Listen and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.opts.Listen == "" {
		return errors.New(config.ErrListenRequired)
	}
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyListen, ln.Addr().String(),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Refresh rebuilds the ICS feed from the store over the lookahead window.
func (s *Server) Refresh(ctx context.Context) error {
	contacts, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	now := s.opts.Clock.Now()
	cal := engine.BuildCalendar(contacts, engine.LookaheadWindow(now, s.opts.LookaheadYears), now,
		engine.Options{LeapDay: s.opts.LeapDay})

	data, err := engine.EncodeICS(cal, now, engine.ICSOptions{
		AlarmTrigger:  s.opts.AlarmTrigger,
		FormatSummary: s.summaryFormatter(),
	})
	if err != nil {
		return err
	}

	s.Update(data)
	slog.Info(config.MsgFeedRefreshed,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyContacts, len(contacts),
		config.LogKeyEvents, len(cal.Events),
	)
	return nil
}

func (s *Server) summaryFormatter() func(engine.Event) string {
	t := s.opts.Translator
	if t == nil {
		return nil
	}
	return func(e engine.Event) string {
		key := config.TKeyEvtReminder
		if e.Type == engine.EventBirthday {
			key = config.TKeyEvtBirthday
		}
		return t.Msg(key, map[string]any{"Name": e.Contact.Name})
	}
}

// refreshAfterMutation keeps the feed in sync with API writes.
func (s *Server) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		slog.Error(config.MsgRequestFailed,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// Update atomically replaces the served content.
func (s *Server) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	item := &cacheItem{
		data:         data,
		etag:         etag,
		lastModified: s.opts.Clock.Now().UTC().Format(http.TimeFormat),
	}

	// Concurrent readers see either the old or the new complete item.
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *Server) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	// 1. Method Validation
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	// 2. Load Data (Atomic / Lock-Free)
	item := s.cache.Load()

	// 3. Readiness Check
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	// 4. Set Response Headers
	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	// 5. Conditional Headers
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	// 6. Serve Content
	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
