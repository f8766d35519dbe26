package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Friendly-Reminder/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Friendly Reminder"
	AppID          = "com.github.tartampluch.friendly-reminder"
	KeyringService = "com.github.tartampluch.friendly-reminder"
	LogFileName    = "app.log"
	ConfigFileName = "config.yaml"
	DatabaseName   = "friendly-reminder.db"
	AuthFileName   = "auth.secret"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs, settings and the auth secret.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands & Flags
// -----------------------------------------------------------------------------

const (
	CmdServe        = "serve"
	CmdImport       = "import"
	CmdDigest       = "digest"
	CmdHashPassword = "hash-password"

	FlagVersion   = "version"
	FlagDebug     = "debug"
	FlagConfig    = "config"
	FlagFile      = "file"
	FlagURL       = "url"
	FlagCardDAV   = "carddav"
	FlagUser      = "user"
	FlagDays      = "days"
	FlagOverwrite = "overwrite"

	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescConfig    = "Path to the YAML settings file"
	FlagDescFile      = "Import contacts from a local .vcf file"
	FlagDescURL       = "Import contacts from a remote .vcf URL"
	FlagDescCardDAV   = "Import contacts from a CardDAV server URL"
	FlagDescUser      = "Username for the remote source"
	FlagDescDays      = "Reminder interval (days) assigned to imported contacts"
	FlagDescOverwrite = "Overwrite an existing auth file without asking"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
	MsgUsage         = "Usage: friendly-reminder [flags] [serve|import|digest|hash-password]\n"
	PromptUsername   = "Enter username: "
	PromptPassword   = "Enter password:   "
	PromptConfirm    = "Confirm password: "
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultListen        = "127.0.0.1:18080"
	DefaultTimezone      = "Local"
	DefaultLanguage      = "en"
	DefaultReminderDays  = 30
	DefaultHorizonDays   = 7
	DefaultLookaheadYrs  = 2
	DefaultDigestCron    = "0 8 * * *"
	DefaultRefreshCron   = "*/15 * * * *"
	DefaultLeapYear      = 2000 // Placeholder year for birthdays without a known year
	DefaultAlarmTrigger  = "-PT0M"
	UIDSalt              = "friendly-reminder-v1-"
	NotifierLog          = "log"
	NotifierSMTP         = "smtp"
	NotifierSNS          = "sns"
	NotifierTelegram     = "telegram"
	MaxSnoozeDays        = 365
	MaxReminderDays      = 3650
	MaxRequestBodyBytes  = 1 << 20
	DefaultSMTPPort      = 587
	EnvPrefix            = "FR_"
	KeyringUserSMTP      = "smtp"
	KeyringUserCardDAV   = "carddav"
	KeyringUserTelegram  = "telegram"
	DefaultFallbackEmail = "reminders@localhost"
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyEvtReminder      = "event_reminder"       // Requires Name
	TKeyEvtBirthday      = "event_birthday"       // Requires Name
	TKeyDigestSubject    = "digest_subject"       // Requires Count
	TKeyDigestIntro      = "digest_intro"         // Requires Name (owner)
	TKeyDigestOverdue    = "digest_overdue"       // Section heading
	TKeyDigestUpcoming   = "digest_upcoming"      // Section heading
	TKeyDigestBirthdays  = "digest_birthdays"     // Section heading
	TKeyDigestDueOn      = "digest_due_on"        // Requires Date
	TKeyDigestDaysLate   = "digest_days_late"     // Requires Count
	TKeyDigestBirthdayOn = "digest_birthday_on"   // Requires Date
	TKeyDigestFooter     = "digest_footer"        // Plain text
	TKeyFormatDate       = "format_date_short"    // Date layout (e.g., "2006-01-02")
	TKeyDigestPlainLine  = "digest_plain_line"    // Requires Name, Date
	TKeyDigestPlainTitle = "digest_plain_heading" // Requires Count
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Friendly Reminder//Engine//EN"
	ICalCalName   = "Friendly Reminder"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "friendlyreminder"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropCategories  = "CATEGORIES"

	VCardBDAY  = "BDAY"
	VCardFN    = "FN"
	VCardN     = "N"
	VCardEmail = "EMAIL"
	VCardNote  = "NOTE"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts used for parsing stored and vCard dates
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatLocalT    = "2006-01-02T15:04:05"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%s@%s"

	// Limits
	MaxRequestBodySize = 1 << 20

	// File Extensions
	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxVCardBytes       = 32 << 20
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AuthRealm           = `Basic realm="Friendly Reminder"`
)

// -----------------------------------------------------------------------------
// HTTP Routes
// -----------------------------------------------------------------------------

const (
	RouteHealth        = "GET /health"
	RouteFeed          = "/calendar.ics"
	RouteContacts      = "GET /api/contacts"
	RouteContactCreate = "POST /api/contacts"
	RouteContactGet    = "GET /api/contacts/{id}"
	RouteContactPut    = "PUT /api/contacts/{id}"
	RouteContactDelete = "DELETE /api/contacts/{id}"
	RouteConversation  = "POST /api/contacts/{id}/conversation"
	RouteSnooze        = "POST /api/contacts/{id}/snooze"
	RouteCalendarMonth = "GET /api/calendar/month"
	RouteCalendarYear  = "GET /api/calendar/year"
	RouteCalendarDay   = "GET /api/calendar/day"
	RouteDashboard     = "GET /api/dashboard"

	PathParamID      = "id"
	QueryYear        = "year"
	QueryMonth       = "month"
	QueryDate        = "date"
	QueryStatus      = "status"
	QueryHorizonDays = "horizon_days"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderAuthenticate    = "WWW-Authenticate"
	HeaderAccept          = "Accept"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeHTML            = "text/html; charset=UTF-8"
	MimeNoSniff         = "nosniff"
	AcceptVCard         = "text/vcard, text/x-vcard;q=0.9, */*;q=0.1"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrListenRequired   = "listen address is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrFetchRequest     = "failed to create request"
	ErrFetchNetwork     = "network error during fetch"
	ErrFetchStatus      = "source returned unexpected status"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrBirthdayFormat   = "birthday must use the YYYY-MM-DD form"
	ErrReminderDays     = "reminder_days must be at least 1"
	ErrReminderDaysMax  = "reminder_days is too large"
	ErrNameRequired     = "name is required"
	ErrSnoozeDays       = "snooze days must be between 1 and 365"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrConfigDir        = "could not determine user config dir"
	ErrCreateDir        = "could not create app directory"
	ErrAppFailed        = "application failed unexpectedly"
	ErrUnknownCommand   = "unknown command"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrSettingsRead     = "failed to read settings file"
	ErrSettingsParse    = "failed to parse settings file"
	ErrSettingsWrite    = "failed to write settings file"
	ErrSettingsEnv      = "failed to apply environment overrides"
	ErrTimezone         = "invalid timezone"
	ErrStoreOpen        = "failed to open contact store"
	ErrStoreMigrate     = "failed to migrate contact store"
	ErrStoreQuery       = "contact store query failed"
	ErrNotFound         = "contact not found"
	ErrCardDAVConnect   = "failed to connect to CardDAV server"
	ErrCardDAVDiscover  = "failed to discover address books"
	ErrCardDAVQuery     = "failed to query address book"
	ErrImportSource     = "exactly one import source is required"
	ErrDigestRender     = "failed to render digest"
	ErrNotifySend       = "failed to deliver notification"
	ErrNotifierUnknown  = "unsupported notifier"
	ErrSMTPConfig       = "SMTP host and recipient are required"
	ErrSNSConfig        = "SNS topic ARN is required"
	ErrTelegramConfig   = "Telegram token and chat id are required"
	ErrSchedulerSpec    = "invalid cron schedule"
	ErrAuthFileFormat   = "invalid auth file format (expected: username:hash)"
	ErrAuthFileExists   = "auth file already exists (use -overwrite)"
	ErrAuthFileRead     = "failed to read auth file"
	ErrAuthFileWrite    = "failed to write auth file"
	ErrHashFormat       = "invalid argon2id hash format"
	ErrSaltGen          = "failed to generate salt"
	ErrPasswordMismatch = "passwords do not match"
	ErrPasswordEmpty    = "username and password cannot be empty"
	ErrInvalidBody      = "invalid request body"
	ErrInvalidQuery     = "invalid query parameter"
	ErrUnknownStatus    = "unknown reminder status"
	ErrUnauthorized     = "unauthorized"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgHealthy      = "ok"
)

// -----------------------------------------------------------------------------
// Fallbacks & Messages
// -----------------------------------------------------------------------------

const (
	FallbackReminderSummary = "Reach out to %s"
	FallbackBirthdaySummary = "Birthday: %s"
	FallbackName            = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Calendar cache updated"
	MsgFeedRefreshed   = "Calendar feed refreshed"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgFetchStart      = "Downloading vCards"
	MsgFetchStatus     = "Source returned error status"
	MsgSkippedDate     = "Skipping invalid date format"
	MsgSkippedBirthday = "Skipping malformed birthday"
	MsgSkippedAnchor   = "Ignoring unparseable next_reminder"
	MsgSkippedHistory  = "Skipping reminders: unparseable last_conversation"
	MsgIterationCap    = "Reminder projection reached iteration cap"
	MsgCalendarBuilt   = "Calendar built"
	MsgImportDone      = "Contacts imported"
	MsgDigestEmpty     = "Digest empty, nothing to send"
	MsgDigestSent      = "Digest delivered"
	MsgSchedulerStart  = "Scheduler started"
	MsgSchedulerStop   = "Scheduler stopped"
	MsgJobFailed       = "Scheduled job failed"
	MsgJobDone         = "Scheduled job finished"
	MsgJobAdded        = "Scheduled job registered"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgSecretMissing   = "Secret not found in keyring"
	MsgAuthDisabled    = "No auth file found, API is unprotected"
	MsgAuthFailed      = "Authentication failed"
	MsgAuthFileWritten = "Auth file written"
	MsgSettingsCreated = "Default settings written"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgRequestFailed   = "Request failed"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyListen    = "listen"
	LogKeyMode      = "mode"
	LogKeyUser      = "user"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyBodyLen   = "content_length"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyContactID = "contact_id"
	LogKeyCap       = "cap"
	LogKeyStart     = "window_start"
	LogKeyEnd       = "window_end"
	LogKeyEvents    = "events"
	LogKeyContacts  = "contacts"
	LogKeyOverdue   = "overdue"
	LogKeyUpcoming  = "upcoming"
	LogKeyBirthdays = "birthdays"
	LogKeyNotifier  = "notifier"
	LogKeySchedule  = "schedule"
	LogKeyJob       = "job"
	LogKeyMethod    = "method"
	LogKeyPath      = "path"
	LogKeyDuration  = "duration_ms"
	LogKeyBook      = "address_book"
	LogKeyCreated   = "created"
	LogKeyUpdated   = "updated"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine    = "engine"
	CompCalendar  = "calendar"
	CompServer    = "server"
	CompAPI       = "api"
	CompAuth      = "auth"
	CompFetcher   = "fetcher"
	CompCardDAV   = "carddav"
	CompStore     = "store"
	CompScheduler = "scheduler"
	CompNotify    = "notify"
	CompMain      = "main"
	CompI18n      = "i18n"
	CompConfig    = "config"
	CompLambda    = "lambda"
)

// -----------------------------------------------------------------------------
// Scheduler Jobs
// -----------------------------------------------------------------------------

const (
	JobDigest  = "digest"
	JobRefresh = "feed_refresh"
)
