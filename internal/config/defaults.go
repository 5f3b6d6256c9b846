package config

import "time"

// switches records which boolean toggles a config file set explicitly, so an
// explicit false can override a true default.
type switches struct {
	Enrichment struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"enrichment"`
	Curation struct {
		Enabled   *bool `yaml:"enabled"`
		Narrative *bool `yaml:"narrative"`
	} `yaml:"curation"`
}

func mergeConfig(base, override Config, set switches) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.Lookback > 0 {
		base.Scheduler.Lookback = override.Scheduler.Lookback
	}

	if override.HTTP.Timeout > 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}
	if override.HTTP.Workers > 0 {
		base.HTTP.Workers = override.HTTP.Workers
	}

	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}
	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	if override.Providers.NewsAPI.Endpoint != "" {
		base.Providers.NewsAPI.Endpoint = override.Providers.NewsAPI.Endpoint
	}
	if override.Providers.NewsAPI.APIKey != "" {
		base.Providers.NewsAPI.APIKey = override.Providers.NewsAPI.APIKey
	}
	if override.Providers.Naver.Endpoint != "" {
		base.Providers.Naver.Endpoint = override.Providers.Naver.Endpoint
	}
	if override.Providers.Naver.ClientID != "" {
		base.Providers.Naver.ClientID = override.Providers.Naver.ClientID
	}
	if override.Providers.Naver.ClientSecret != "" {
		base.Providers.Naver.ClientSecret = override.Providers.Naver.ClientSecret
	}
	if override.Providers.Finnhub.APIKey != "" {
		base.Providers.Finnhub.APIKey = override.Providers.Finnhub.APIKey
	}

	if override.History.Backend != "" {
		base.History.Backend = override.History.Backend
	}
	if override.History.Path != "" {
		base.History.Path = override.History.Path
	}
	if override.History.DSN != "" {
		base.History.DSN = override.History.DSN
	}
	if override.History.RedisURL != "" {
		base.History.RedisURL = override.History.RedisURL
	}
	if override.History.RedisKey != "" {
		base.History.RedisKey = override.History.RedisKey
	}

	base.Enrichment = mergeEnrichment(base.Enrichment, override.Enrichment, set)
	base.Curation = mergeCuration(base.Curation, override.Curation, set)

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}
	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.ML.InferenceURL != "" {
		base.ML.InferenceURL = override.ML.InferenceURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}

	base.Delivery = mergeDelivery(base.Delivery, override.Delivery)

	return base
}

func mergeEnrichment(base, override EnrichmentConfig, set switches) EnrichmentConfig {
	if set.Enrichment.Enabled != nil {
		base.Enabled = *set.Enrichment.Enabled
	}
	if override.Workers > 0 {
		base.Workers = override.Workers
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.RatePerSecond > 0 {
		base.RatePerSecond = override.RatePerSecond
	}
	return base
}

func mergeCuration(base, override CurationConfig, set switches) CurationConfig {
	if set.Curation.Enabled != nil {
		base.Enabled = *set.Curation.Enabled
	}
	if set.Curation.Narrative != nil {
		base.Narrative = *set.Curation.Narrative
	}
	if override.Provider != "" {
		base.Provider = override.Provider
	}
	if override.Limit > 0 {
		base.Limit = override.Limit
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	return base
}

func mergeDelivery(base, override DeliveryConfig) DeliveryConfig {
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.SubjectFormat != "" {
		base.SubjectFormat = override.SubjectFormat
	}

	if override.Email.Transport != "" {
		base.Email.Transport = override.Email.Transport
	}
	if override.Email.Sender != "" {
		base.Email.Sender = override.Email.Sender
	}
	if len(override.Email.Recipients) > 0 {
		base.Email.Recipients = override.Email.Recipients
	}
	if override.Email.SMTP.Server != "" {
		base.Email.SMTP.Server = override.Email.SMTP.Server
	}
	if override.Email.SMTP.Port > 0 {
		base.Email.SMTP.Port = override.Email.SMTP.Port
	}
	if override.Email.SMTP.User != "" {
		base.Email.SMTP.User = override.Email.SMTP.User
	}
	if override.Email.SMTP.Password != "" {
		base.Email.SMTP.Password = override.Email.SMTP.Password
	}
	if override.Email.Gmail.CredentialsFile != "" {
		base.Email.Gmail.CredentialsFile = override.Email.Gmail.CredentialsFile
	}
	if override.Email.Gmail.TokenFile != "" {
		base.Email.Gmail.TokenFile = override.Email.Gmail.TokenFile
	}

	if override.Slack.WebhookURL != "" {
		base.Slack.WebhookURL = override.Slack.WebhookURL
	}
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Archive.Path != "" {
		base.Archive.Path = override.Archive.Path
	}
	if override.Archive.MaxEntries > 0 {
		base.Archive.MaxEntries = override.Archive.MaxEntries
	}
	if override.Archive.FeedLink != "" {
		base.Archive.FeedLink = override.Archive.FeedLink
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{CronExpression: "0 8 * * *", Timezone: defaultTimezone, Lookback: 24 * time.Hour},
		HTTP: HTTPConfig{
			Timeout:   20 * time.Second,
			UserAgent: "NewsDigest/1.0",
			Workers:   4,
		},
		Keywords: []string{
			"생성형 AI", "LLM", "Gemini", "ChatGPT", "인공지능 윤리", "AI 반도체",
			"증시", "코스피", "나스닥", "반도체", "테마주", "금리", "실적 발표",
			"딥러닝", "강화학습", "데이터 과학", "컴퓨터 비전", "자연어 처리", "NLP",
		},
		Providers: ProviderConfig{
			NewsAPI: NewsAPIConfig{Endpoint: "https://newsapi.org/v2/everything"},
			Naver:   NaverConfig{Endpoint: "https://openapi.naver.com/v1/search/news.json"},
		},
		History: HistoryConfig{
			Backend:  "file",
			Path:     "sent_links.txt",
			RedisKey: "newsdigest:sent_links",
		},
		Enrichment: EnrichmentConfig{
			Enabled:       true,
			Workers:       4,
			Timeout:       10 * time.Second,
			RatePerSecond: 5,
		},
		Curation: CurationConfig{
			Enabled:   false,
			Provider:  "gemini",
			Limit:     10,
			Timeout:   60 * time.Second,
			Narrative: true,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
		},
		Gemini:    GeminiConfig{Model: "gemini-2.5-flash"},
		Anthropic: AnthropicConfig{Model: "claude-haiku-4-5"},
		Delivery: DeliveryConfig{
			Timeout:       30 * time.Second,
			SubjectFormat: "[%s] 오늘의 AI/주식/머신러닝 뉴스",
			Email: EmailConfig{
				Transport: "smtp",
				SMTP:      SMTPConfig{Server: "smtp.gmail.com", Port: 587},
				Gmail: GmailConfig{
					CredentialsFile: "credentials.json",
					TokenFile:       "token.json",
				},
			},
			Archive: ArchiveConfig{MaxEntries: 200},
		},
		Sites: []SiteConfig{
			{
				Name:       "korean-tech-feeds",
				Scanner:    "rss",
				MaxResults: 50,
				Categories: []CategoryConfig{
					{Name: "zdnet", URL: "https://www.zdnet.co.kr/rss/all.xml"},
					{Name: "etnews", URL: "https://www.etnews.com/rss/all.xml"},
					{Name: "itworld", URL: "https://www.itworld.co.kr/rss"},
					{Name: "einfomax", URL: "https://news.einfomax.co.kr/rss/clickTop.xml"},
					{Name: "hankyung", URL: "https://www.hankyung.com/feed/it"},
				},
			},
			{Name: "naver", Scanner: "naver", MaxResults: 100},
			{Name: "newsapi", Scanner: "newsapi", MaxResults: 100, Options: map[string]string{"language": "ko"}},
		},
	}
}
