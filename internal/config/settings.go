package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// SMTPSettings configures e-mail delivery of reminder digests.
type SMTPSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// SNSSettings configures delivery through an AWS SNS topic.
type SNSSettings struct {
	TopicARN string `yaml:"topic_arn"`
	Region   string `yaml:"region"`
}

// TelegramSettings configures delivery through a Telegram bot.
type TelegramSettings struct {
	Token  string `yaml:"token,omitempty"`
	ChatID int64  `yaml:"chat_id"`
}

// CardDAVSettings configures the default CardDAV import source.
type CardDAVSettings struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
}

// Settings is the runtime configuration of the service.
// It is persisted as YAML and can be overridden through FR_* environment variables.
type Settings struct {
	Listen       string `yaml:"listen"`
	DatabasePath string `yaml:"database"`
	AuthFile     string `yaml:"auth_file"`
	Timezone     string `yaml:"timezone"`
	Language     string `yaml:"language"`
	OwnerName    string `yaml:"owner_name"`

	// DefaultReminderDays is assigned to contacts imported without an interval.
	DefaultReminderDays int `yaml:"default_reminder_days"`

	// HorizonDays is the "upcoming" window of the dashboard and digest.
	HorizonDays int `yaml:"horizon_days"`

	// LookaheadYears bounds the ICS feed and the yearly view when no year is given.
	LookaheadYears int `yaml:"lookahead_years"`

	// LeapDay is "march1" (default) or "feb28".
	LeapDay string `yaml:"leap_day"`

	DigestCron   string `yaml:"digest_cron"`
	RefreshCron  string `yaml:"refresh_cron"`
	AlarmTrigger string `yaml:"alarm_trigger"`
	Notifier     string `yaml:"notifier"`

	SMTP     SMTPSettings     `yaml:"smtp"`
	SNS      SNSSettings      `yaml:"sns"`
	Telegram TelegramSettings `yaml:"telegram"`
	CardDAV  CardDAVSettings  `yaml:"carddav"`
}

// envSettings is the flat view of Settings that may be overridden from the environment.
// Zero values mean "not set".
type envSettings struct {
	Listen         string `env:"FR_LISTEN"`
	DatabasePath   string `env:"FR_DATABASE"`
	AuthFile       string `env:"FR_AUTH_FILE"`
	Timezone       string `env:"FR_TIMEZONE"`
	Language       string `env:"FR_LANGUAGE"`
	OwnerName      string `env:"FR_OWNER_NAME"`
	ReminderDays   int    `env:"FR_DEFAULT_REMINDER_DAYS"`
	HorizonDays    int    `env:"FR_HORIZON_DAYS"`
	LookaheadYears int    `env:"FR_LOOKAHEAD_YEARS"`
	LeapDay        string `env:"FR_LEAP_DAY"`
	DigestCron     string `env:"FR_DIGEST_CRON"`
	RefreshCron    string `env:"FR_REFRESH_CRON"`
	Notifier       string `env:"FR_NOTIFIER"`
	SMTPHost       string `env:"FR_SMTP_HOST"`
	SMTPPort       int    `env:"FR_SMTP_PORT"`
	SMTPUser       string `env:"FR_SMTP_USERNAME"`
	SMTPPassword   string `env:"FR_SMTP_PASSWORD"`
	SMTPFrom       string `env:"FR_SMTP_FROM"`
	SMTPTo         string `env:"FR_SMTP_TO"`
	SNSTopicARN    string `env:"FR_SNS_TOPIC_ARN"`
	SNSRegion      string `env:"FR_SNS_REGION"`
	TelegramToken  string `env:"FR_TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"FR_TELEGRAM_CHAT_ID"`
	CardDAVURL     string `env:"FR_CARDDAV_URL"`
	CardDAVUser    string `env:"FR_CARDDAV_USERNAME"`
	CardDAVPass    string `env:"FR_CARDDAV_PASSWORD"`
}

// Leap day policy names accepted in the settings file.
const (
	LeapDayMarch1 = "march1"
	LeapDayFeb28  = "feb28"
)

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Listen:              DefaultListen,
		Timezone:            DefaultTimezone,
		Language:            DefaultLanguage,
		DefaultReminderDays: DefaultReminderDays,
		HorizonDays:         DefaultHorizonDays,
		LookaheadYears:      DefaultLookaheadYrs,
		LeapDay:             LeapDayMarch1,
		DigestCron:          DefaultDigestCron,
		RefreshCron:         DefaultRefreshCron,
		AlarmTrigger:        DefaultAlarmTrigger,
		Notifier:            NotifierLog,
		SMTP:                SMTPSettings{Port: DefaultSMTPPort},
	}
}

// Normalize fills in missing or invalid values with defaults so that
// partially-filled files still behave correctly.
func (s *Settings) Normalize() {
	d := DefaultSettings()
	if s.Listen == "" {
		s.Listen = d.Listen
	}
	if s.Timezone == "" {
		s.Timezone = d.Timezone
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	if s.DefaultReminderDays <= 0 {
		s.DefaultReminderDays = d.DefaultReminderDays
	}
	if s.HorizonDays <= 0 {
		s.HorizonDays = d.HorizonDays
	}
	if s.LookaheadYears <= 0 {
		s.LookaheadYears = d.LookaheadYears
	}
	switch s.LeapDay {
	case LeapDayMarch1, LeapDayFeb28:
	default:
		s.LeapDay = LeapDayMarch1
	}
	if s.DigestCron == "" {
		s.DigestCron = d.DigestCron
	}
	if s.RefreshCron == "" {
		s.RefreshCron = d.RefreshCron
	}
	if s.AlarmTrigger == "" {
		s.AlarmTrigger = d.AlarmTrigger
	}
	if s.Notifier == "" {
		s.Notifier = d.Notifier
	}
	if s.SMTP.Port <= 0 {
		s.SMTP.Port = d.SMTP.Port
	}
}

// Location resolves the configured IANA timezone.
func (s *Settings) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrTimezone, err)
	}
	return loc, nil
}

// Horizon returns the upcoming window as a duration.
func (s *Settings) Horizon() time.Duration {
	return time.Duration(s.HorizonDays) * 24 * time.Hour
}

// Load reads settings from path.
//
// If the file does not exist, defaults are written there (0600) and returned.
// Environment overrides are applied last, then the result is normalized.
func Load(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, s); err != nil {
			return nil, err
		}
		slog.Info(MsgSettingsCreated,
			LogKeyComponent, CompConfig,
			LogKeyFile, path,
		)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
		}
	}

	if err := s.ApplyEnv(); err != nil {
		return nil, err
	}
	s.Normalize()
	return s, nil
}

// Save writes settings as YAML, creating the parent directory if needed.
func Save(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.WriteFile(path, data, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}

// ApplyEnv overrides fields with any FR_* environment variables that are set.
func (s *Settings) ApplyEnv() error {
	var e envSettings
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsEnv, err)
	}

	setString(&s.Listen, e.Listen)
	setString(&s.DatabasePath, e.DatabasePath)
	setString(&s.AuthFile, e.AuthFile)
	setString(&s.Timezone, e.Timezone)
	setString(&s.Language, e.Language)
	setString(&s.OwnerName, e.OwnerName)
	setInt(&s.DefaultReminderDays, e.ReminderDays)
	setInt(&s.HorizonDays, e.HorizonDays)
	setInt(&s.LookaheadYears, e.LookaheadYears)
	setString(&s.LeapDay, e.LeapDay)
	setString(&s.DigestCron, e.DigestCron)
	setString(&s.RefreshCron, e.RefreshCron)
	setString(&s.Notifier, e.Notifier)
	setString(&s.SMTP.Host, e.SMTPHost)
	setInt(&s.SMTP.Port, e.SMTPPort)
	setString(&s.SMTP.Username, e.SMTPUser)
	setString(&s.SMTP.Password, e.SMTPPassword)
	setString(&s.SMTP.From, e.SMTPFrom)
	setString(&s.SMTP.To, e.SMTPTo)
	setString(&s.SNS.TopicARN, e.SNSTopicARN)
	setString(&s.SNS.Region, e.SNSRegion)
	setString(&s.Telegram.Token, e.TelegramToken)
	if e.TelegramChatID != 0 {
		s.Telegram.ChatID = e.TelegramChatID
	}
	setString(&s.CardDAV.URL, e.CardDAVURL)
	setString(&s.CardDAV.Username, e.CardDAVUser)
	setString(&s.CardDAV.Password, e.CardDAVPass)
	return nil
}

// ResolveSecrets fills empty credentials from the OS keyring.
// Secrets are stored under KeyringService with one account per integration.
func (s *Settings) ResolveSecrets() {
	s.SMTP.Password = resolveSecret(KeyringUserSMTP, s.SMTP.Password)
	s.CardDAV.Password = resolveSecret(KeyringUserCardDAV, s.CardDAV.Password)
	s.Telegram.Token = resolveSecret(KeyringUserTelegram, s.Telegram.Token)
}

func resolveSecret(account, current string) string {
	if current != "" {
		return current
	}
	secret, err := keyring.Get(KeyringService, account)
	if err != nil {
		slog.Debug(MsgSecretMissing,
			LogKeyComponent, CompConfig,
			LogKeyUser, account,
			LogKeyError, err,
		)
		return ""
	}
	return secret
}

// DefaultConfigPath returns the platform-specific settings location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, ConfigFileName), nil
}

// ResolvePaths derives the database and auth file locations from the settings
// file directory when they are not configured explicitly.
func (s *Settings) ResolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	if s.DatabasePath == "" {
		s.DatabasePath = filepath.Join(dir, DatabaseName)
	}
	if s.AuthFile == "" {
		s.AuthFile = filepath.Join(dir, AuthFileName)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
