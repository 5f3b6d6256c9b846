package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Seoul"
	configPathEnv   = "NEWS_DIGEST_CONFIG"

	logLevelEnv          = "LOG_LEVEL"
	logFormatEnv         = "LOG_FORMAT"
	keywordsEnv          = "NEWS_KEYWORDS"
	newsAPIKeyEnv        = "NEWSAPI_API_KEY"
	naverClientIDEnv     = "NAVER_CLIENT_ID"
	naverClientSecretEnv = "NAVER_CLIENT_SECRET"
	finnhubAPIKeyEnv     = "FINNHUB_API_KEY"
	historyBackendEnv    = "HISTORY_BACKEND"
	historyFileEnv       = "HISTORY_FILE"
	databaseDSNEnv       = "DATABASE_DSN"
	redisURLEnv          = "REDIS_URL"
	curationProviderEnv  = "CURATION_PROVIDER"
	curationModelEnv     = "CURATION_MODEL"
	geminiAPIKeyEnv      = "GEMINI_API_KEY"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	anthropicAPIKeyEnv   = "ANTHROPIC_API_KEY"
	mlInferenceURLEnv    = "ML_INFERENCE_URL"
	mlAPIKeyEnv          = "ML_API_KEY"
	smtpServerEnv        = "SMTP_SERVER"
	smtpPortEnv          = "SMTP_PORT"
	smtpUserEnv          = "SMTP_USER"
	smtpPassEnv          = "SMTP_PASS"
	emailSenderEnv       = "EMAIL_SENDER"
	emailRecipientsEnv   = "EMAIL_RECIPIENTS"
	gmailCredentialsEnv  = "GMAIL_CREDENTIALS_FILE"
	gmailTokenEnv        = "GMAIL_TOKEN_FILE"
	slackWebhookEnv      = "SLACK_WEBHOOK_URL"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	archivePathEnv       = "ARCHIVE_PATH"

	// DefaultSender and DefaultRecipient are used when mail is enabled but
	// no addresses were configured.
	DefaultSender    = "news-digest@localhost"
	DefaultRecipient = "digest@localhost"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	HTTP       HTTPConfig       `yaml:"http"`
	Keywords   []string         `yaml:"keywords"`
	Sites      []SiteConfig     `yaml:"sites"`
	Providers  ProviderConfig   `yaml:"providers"`
	History    HistoryConfig    `yaml:"history"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Curation   CurationConfig   `yaml:"curation"`
	ChatGPT    ChatGPTConfig    `yaml:"chatgpt"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	ML         MLConfig         `yaml:"ml"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	Lookback       time.Duration  `yaml:"lookback"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HTTPConfig is shared by all outbound HTTP clients.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
	Workers   int           `yaml:"workers"`
}

// SiteConfig describes a single source with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	MaxResults int               `yaml:"maxResults"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds the concrete endpoints to crawl (feed URLs, listing pages).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ProviderConfig groups credentials of the search APIs.
type ProviderConfig struct {
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
	Naver   NaverConfig   `yaml:"naver"`
	Finnhub FinnhubConfig `yaml:"finnhub"`
}

// NewsAPIConfig holds newsapi.org settings.
type NewsAPIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// NaverConfig holds Naver search API credentials.
type NaverConfig struct {
	Endpoint     string `yaml:"endpoint"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
}

// FinnhubConfig holds the Finnhub token.
type FinnhubConfig struct {
	APIKey string `yaml:"apiKey"`
}

// HistoryConfig selects the send-history backend: file, sqlite, postgres or redis.
type HistoryConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redisUrl"`
	RedisKey string `yaml:"redisKey"`
}

// EnrichmentConfig bounds preview-image scraping.
type EnrichmentConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Workers       int           `yaml:"workers"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
}

// CurationConfig configures the optional ranking/briefing stage.
type CurationConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Provider  string        `yaml:"provider"`
	Limit     int           `yaml:"limit"`
	Timeout   time.Duration `yaml:"timeout"`
	Narrative bool          `yaml:"narrative"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API.
type ChatGPTConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// AnthropicConfig defines how to contact the Anthropic API.
type AnthropicConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// MLConfig describes a self-hosted ranking service.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// DeliveryConfig encapsulates outbound channels.
type DeliveryConfig struct {
	Timeout       time.Duration  `yaml:"timeout"`
	SubjectFormat string         `yaml:"subjectFormat"`
	Email         EmailConfig    `yaml:"email"`
	Slack         SlackConfig    `yaml:"slack"`
	Telegram      TelegramConfig `yaml:"telegram"`
	Archive       ArchiveConfig  `yaml:"archive"`
}

// EmailConfig covers both SMTP and Gmail API transports.
type EmailConfig struct {
	Transport  string      `yaml:"transport"`
	Sender     string      `yaml:"sender"`
	Recipients []string    `yaml:"recipients"`
	SMTP       SMTPConfig  `yaml:"smtp"`
	Gmail      GmailConfig `yaml:"gmail"`
}

// SMTPConfig holds SMTP credentials.
type SMTPConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// GmailConfig points at OAuth client credentials and the cached user token.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentialsFile"`
	TokenFile       string `yaml:"tokenFile"`
}

// SlackConfig holds the incoming webhook URL.
type SlackConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ArchiveConfig enables the rolling Atom feed file.
type ArchiveConfig struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"maxEntries"`
	FeedLink   string `yaml:"feedLink"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit config path; an empty path uses defaults.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var (
				fileCfg Config
				set     switches
			)
			err := yaml.Unmarshal(raw, &fileCfg)
			if err == nil {
				err = yaml.Unmarshal(raw, &set)
			}
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg, set)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Logging.Format, logFormatEnv)

	if v := os.Getenv(keywordsEnv); v != "" {
		c.Keywords = SplitList(v)
	}

	setString(&c.Providers.NewsAPI.APIKey, newsAPIKeyEnv)
	setString(&c.Providers.Naver.ClientID, naverClientIDEnv)
	setString(&c.Providers.Naver.ClientSecret, naverClientSecretEnv)
	setString(&c.Providers.Finnhub.APIKey, finnhubAPIKeyEnv)

	setString(&c.History.Backend, historyBackendEnv)
	setString(&c.History.Path, historyFileEnv)
	setString(&c.History.DSN, databaseDSNEnv)
	setString(&c.History.RedisURL, redisURLEnv)

	setString(&c.Curation.Provider, curationProviderEnv)
	if v := os.Getenv(curationModelEnv); v != "" {
		c.ChatGPT.Model = v
		c.Gemini.Model = v
		c.Anthropic.Model = v
	}
	setString(&c.Gemini.APIKey, geminiAPIKeyEnv)
	setString(&c.ChatGPT.APIKey, openAIAPIKeyEnv)
	setString(&c.Anthropic.APIKey, anthropicAPIKeyEnv)
	setString(&c.ML.InferenceURL, mlInferenceURLEnv)
	setString(&c.ML.APIKey, mlAPIKeyEnv)

	email := &c.Delivery.Email
	setString(&email.SMTP.Server, smtpServerEnv)
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			email.SMTP.Port = port
		} else {
			log.Printf("config: invalid %s=%q ignored", smtpPortEnv, v)
		}
	}
	setString(&email.SMTP.User, smtpUserEnv)
	setString(&email.SMTP.Password, smtpPassEnv)
	setString(&email.Sender, emailSenderEnv)
	if v := os.Getenv(emailRecipientsEnv); v != "" {
		email.Recipients = SplitList(v)
	}
	setString(&email.Gmail.CredentialsFile, gmailCredentialsEnv)
	setString(&email.Gmail.TokenFile, gmailTokenEnv)

	setString(&c.Delivery.Slack.WebhookURL, slackWebhookEnv)
	setString(&c.Delivery.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Delivery.Telegram.ChatID, telegramChatIDEnv)
	setString(&c.Delivery.Archive.Path, archivePathEnv)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// SplitList splits a comma-separated value, trimming entries and dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

// EmailSender returns the configured sender or the fixed fallback.
func (e EmailConfig) EmailSender() string {
	if e.Sender != "" {
		return e.Sender
	}
	if e.SMTP.User != "" {
		return e.SMTP.User
	}
	return DefaultSender
}

// EmailRecipients returns the configured recipients or the fixed fallback.
func (e EmailConfig) EmailRecipients() []string {
	if len(e.Recipients) > 0 {
		return e.Recipients
	}
	return []string{DefaultRecipient}
}
