package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/i18n"
	"github.com/tartampluch/friendly-reminder/internal/notify"
	"github.com/tartampluch/friendly-reminder/internal/scheduler"
	"github.com/tartampluch/friendly-reminder/internal/server"
	"github.com/tartampluch/friendly-reminder/internal/store"
	"golang.org/x/term"
)

// serve runs the HTTP API, the ICS feed and the scheduled jobs until ctx ends.
func serve(ctx context.Context, s *config.Settings) error {
	loc, err := s.Location()
	if err != nil {
		return err
	}
	clock := engine.ZonedClock{Loc: loc}

	st, err := store.Open(s.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	auth, err := server.LoadAuthenticator(s.AuthFile)
	if err != nil {
		return err
	}

	tr := i18n.New(s.Language)
	srv := server.New(st, server.Options{
		Listen:         s.Listen,
		Clock:          clock,
		LookaheadYears: s.LookaheadYears,
		Horizon:        s.Horizon(),
		LeapDay:        engine.ParseLeapDayPolicy(s.LeapDay),
		AlarmTrigger:   s.AlarmTrigger,
		Translator:     tr,
		Auth:           auth,
	})

	digest, err := newDigestService(ctx, s, st, clock, tr)
	if err != nil {
		return err
	}

	sched := scheduler.New(loc)
	if err := sched.Add(config.JobRefresh, s.RefreshCron, srv.Refresh); err != nil {
		return err
	}
	if err := sched.Add(config.JobDigest, s.DigestCron, digest.Job); err != nil {
		return err
	}

	// Serve a fresh feed from the first request on.
	sched.RunNow(config.JobRefresh, srv.Refresh)

	var wg sync.WaitGroup
	schedCtx, stopSched := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(schedCtx)
	}()

	err = srv.Start(ctx)
	stopSched()
	wg.Wait()
	return err
}

// importContacts merges contacts from exactly one vCard source into the store.
func importContacts(ctx context.Context, s *config.Settings, args []string) error {
	fs := flag.NewFlagSet(config.CmdImport, flag.ContinueOnError)
	file := fs.String(config.FlagFile, "", config.FlagDescFile)
	url := fs.String(config.FlagURL, "", config.FlagDescURL)
	dav := fs.String(config.FlagCardDAV, "", config.FlagDescCardDAV)
	user := fs.String(config.FlagUser, s.CardDAV.Username, config.FlagDescUser)
	days := fs.Int(config.FlagDays, s.DefaultReminderDays, config.FlagDescDays)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days < 1 || *days > config.MaxReminderDays {
		return fmt.Errorf("%w: -%s %d", engine.ErrInvalidContact, config.FlagDays, *days)
	}

	// The configured CardDAV server is the default source.
	if *file == "" && *url == "" && *dav == "" {
		*dav = s.CardDAV.URL
	}

	var src engine.ContactSource
	switch {
	case countSet(*file, *url, *dav) != 1:
		return errors.New(config.ErrImportSource)
	case *file != "":
		src = engine.FileSource{Path: *file, DefaultDays: *days}
	case *url != "":
		src = engine.URLSource{
			Fetcher:     engine.NewHTTPFetcher(),
			URL:         *url,
			Username:    *user,
			Password:    s.CardDAV.Password,
			DefaultDays: *days,
		}
	default:
		src = engine.CardDAVSource{
			URL:         *dav,
			Username:    *user,
			Password:    s.CardDAV.Password,
			DefaultDays: *days,
		}
	}

	contacts, err := src.Contacts(ctx)
	if err != nil {
		return err
	}

	st, err := store.Open(s.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	_, err = st.Import(ctx, contacts)
	return err
}

// sendDigest builds and delivers one digest immediately.
func sendDigest(ctx context.Context, s *config.Settings) error {
	loc, err := s.Location()
	if err != nil {
		return err
	}

	st, err := store.Open(s.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	svc, err := newDigestService(ctx, s, st, engine.ZonedClock{Loc: loc}, i18n.New(s.Language))
	if err != nil {
		return err
	}
	return svc.Job(ctx)
}

func newDigestService(ctx context.Context, s *config.Settings, st *store.Store, clock engine.Clock, tr *i18n.Translator) (*notify.Service, error) {
	n, err := notify.New(ctx, s)
	if err != nil {
		return nil, err
	}
	r, err := notify.NewRenderer(tr, s.OwnerName)
	if err != nil {
		return nil, err
	}
	return &notify.Service{
		Contacts: st,
		Clock:    clock,
		Horizon:  s.Horizon(),
		LeapDay:  engine.ParseLeapDayPolicy(s.LeapDay),
		Renderer: r,
		Notifier: n,
	}, nil
}

// hashPassword prompts for credentials and writes the auth file.
func hashPassword(s *config.Settings, args []string) error {
	fs := flag.NewFlagSet(config.CmdHashPassword, flag.ContinueOnError)
	overwrite := fs.Bool(config.FlagOverwrite, false, config.FlagDescOverwrite)
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)

	fmt.Print(config.PromptUsername)
	username, err := in.ReadString('\n')
	if err != nil && username == "" {
		return err
	}
	username = strings.TrimSpace(username)

	password, err := readPassword(in, config.PromptPassword)
	if err != nil {
		return err
	}
	confirm, err := readPassword(in, config.PromptConfirm)
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New(config.ErrPasswordMismatch)
	}

	return server.WriteAuthFile(s.AuthFile, username, password, *overwrite)
}

// readPassword reads a line without echo when stdin is a terminal.
func readPassword(in *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
