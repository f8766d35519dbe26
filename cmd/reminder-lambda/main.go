package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/caarlos0/env"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/i18n"
	"github.com/tartampluch/friendly-reminder/internal/notify"
	"github.com/tartampluch/friendly-reminder/internal/store"
	"go.uber.org/automaxprocs/maxprocs"
)

type environmentVariables struct {
	DatabasePath string `env:"FR_DATABASE,required"`
	TopicARN     string `env:"FR_SNS_TOPIC_ARN,required"`
	Region       string `env:"FR_SNS_REGION"`
	Timezone     string `env:"FR_TIMEZONE" envDefault:"UTC"`
	Language     string `env:"FR_LANGUAGE" envDefault:"en"`
	OwnerName    string `env:"FR_OWNER_NAME"`
	HorizonDays  int    `env:"FR_HORIZON_DAYS" envDefault:"7"`
	LeapDay      string `env:"FR_LEAP_DAY" envDefault:"march1"`
}

// Response summarizes one invocation.
type Response struct {
	Sent      bool `json:"sent"`
	Overdue   int  `json:"overdue"`
	Upcoming  int  `json:"upcoming"`
	Birthdays int  `json:"birthdays"`
}

func setup() (*config.Settings, error) {
	if _, err := maxprocs.Set(); err != nil {
		return nil, fmt.Errorf("error setting GOMAXPROCS: %w", err)
	}

	var e environmentVariables
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSettingsEnv, err)
	}

	s := config.DefaultSettings()
	s.DatabasePath = e.DatabasePath
	s.Timezone = e.Timezone
	s.Language = e.Language
	s.OwnerName = e.OwnerName
	s.HorizonDays = e.HorizonDays
	s.LeapDay = e.LeapDay
	s.Notifier = config.NotifierSNS
	s.SNS = config.SNSSettings{TopicARN: e.TopicARN, Region: e.Region}
	s.Normalize()
	return s, nil
}

// HandleRequest sends the daily digest through SNS.
func HandleRequest(ctx context.Context) (Response, error) {
	log := slog.With(config.LogKeyComponent, config.CompLambda)
	log.Info(config.MsgAppStarting)
	defer log.Info(config.MsgAppStop)

	s, err := setup()
	if err != nil {
		return Response{}, err
	}
	loc, err := s.Location()
	if err != nil {
		return Response{}, err
	}

	st, err := store.Open(s.DatabasePath)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = st.Close() }()

	n, err := notify.NewSNSNotifier(ctx, s.SNS)
	if err != nil {
		return Response{}, err
	}
	r, err := notify.NewRenderer(i18n.New(s.Language), s.OwnerName)
	if err != nil {
		return Response{}, err
	}

	svc := &notify.Service{
		Contacts: st,
		Clock:    engine.ZonedClock{Loc: loc},
		Horizon:  s.Horizon(),
		LeapDay:  engine.ParseLeapDayPolicy(s.LeapDay),
		Renderer: r,
		Notifier: n,
	}

	d, sent, err := svc.Run(ctx)
	if err != nil {
		log.Error(config.ErrNotifySend, config.LogKeyError, err)
		return Response{}, err
	}
	return Response{
		Sent:      sent,
		Overdue:   len(d.Overdue),
		Upcoming:  len(d.Upcoming),
		Birthdays: len(d.Birthdays),
	}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	lambda.Start(HandleRequest)
}
