// Package app wires configuration to adapters and use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/curation"
	"NewsDigest/internal/infrastructure/archive"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/mail"
	"NewsDigest/internal/infrastructure/ml"
	"NewsDigest/internal/infrastructure/parser"
	"NewsDigest/internal/infrastructure/preview"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/infrastructure/telegram"
	"NewsDigest/internal/infrastructure/webhook"
	"NewsDigest/internal/keyword"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/render"
	"NewsDigest/internal/scanner"
	"NewsDigest/internal/usecase"
	"NewsDigest/pkg/logger"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	history  ports.HistoryStore
	closers  []func() error
	pipeline *usecase.Pipeline
	sinks    []ports.Sink
}

// New builds the application. Only a history backend that cannot be opened
// is fatal; misconfigured optional parts are skipped with a warning.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	history, closeHistory, err := storage.OpenHistory(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	source := newSource(cfg, httpClient, baseLogger)
	stage := curation.NewStage(
		newRanker(ctx, cfg, baseLogger),
		cfg.Curation.Limit,
		cfg.Curation.Timeout,
		cfg.Curation.Narrative,
		baseLogger.With("component", "curation"),
	)
	sinks := newSinks(ctx, cfg, httpClient, baseLogger)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:          source,
		History:         history,
		Curator:         stage,
		Sinks:           sinks,
		Lookback:        cfg.Scheduler.Lookback,
		SubjectFormat:   cfg.Delivery.SubjectFormat,
		DeliveryTimeout: cfg.Delivery.Timeout,
		Logger:          baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		history:  history,
		closers:  []func() error{closeHistory},
		pipeline: pipeline,
		sinks:    sinks,
	}, nil
}

// Run performs a single pipeline execution stamped in the configured timezone.
func (a *Application) Run(ctx context.Context) (usecase.RunReport, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// Schedule runs the pipeline on the configured cron expression until ctx is
// done. With runNow the first run starts immediately.
func (a *Application) Schedule(ctx context.Context, runNow bool) error {
	loc := a.cfg.Scheduler.Location()
	driver, err := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		loc,
		logger.New(a.logger, "cron"),
	)
	if err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", loc.String(),
		"next", driver.Next(time.Now()),
	)

	if runNow {
		sched.RunNow(ctx, time.Now().In(loc))
	}

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Delivery.Timeout+time.Minute)
	defer cancel()
	return sched.Stop(stopCtx)
}

// History exposes the configured send-history store.
func (a *Application) History() ports.HistoryStore {
	return a.history
}

// Sinks lists the enabled delivery channels in dispatch order.
func (a *Application) Sinks() []string {
	names := make([]string, 0, len(a.sinks))
	for _, s := range a.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Close releases backend connections.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newSource(cfg config.Config, client *http.Client, log *slog.Logger) *parser.StrategySource {
	ua := cfg.HTTP.UserAgent
	registry := scanner.NewRegistry()
	registry.Register(parser.NewRSSScanner(client, ua))
	registry.Register(parser.NewArxivScanner(client, ua))
	registry.Register(parser.NewNewsAPIScanner(client, cfg.Providers.NewsAPI.Endpoint, cfg.Providers.NewsAPI.APIKey, ua))
	registry.Register(parser.NewNaverScanner(client, cfg.Providers.Naver.Endpoint,
		cfg.Providers.Naver.ClientID, cfg.Providers.Naver.ClientSecret, ua))
	registry.Register(parser.NewFinnhubScanner(client, cfg.Providers.Finnhub.APIKey))

	opts := []parser.Option{
		parser.WithWorkers(cfg.HTTP.Workers),
		// one site scan spans several paginated requests
		parser.WithScanTimeout(3 * cfg.HTTP.Timeout),
	}
	if cfg.Enrichment.Enabled {
		extractor := preview.NewExtractor(client, ua, cfg.Enrichment.RatePerSecond)
		opts = append(opts, parser.WithImageExtractor(extractor, parser.EnrichOptions{
			Workers: cfg.Enrichment.Workers,
			Timeout: cfg.Enrichment.Timeout,
		}))
	}

	return parser.NewStrategySource(registry, cfg.Sites, keyword.New(cfg.Keywords...),
		log.With("component", "source"), opts...)
}

// newRanker returns nil when curation is disabled or its backend cannot be
// built; the stage then truncates.
func newRanker(ctx context.Context, cfg config.Config, log *slog.Logger) ports.Ranker {
	if !cfg.Curation.Enabled {
		return nil
	}
	timeout := cfg.Curation.Timeout
	if timeout <= 0 {
		timeout = curation.DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	if strings.EqualFold(cfg.Curation.Provider, "ml") {
		if cfg.ML.InferenceURL == "" {
			log.Warn("curation provider ml has no inference url, curation disabled")
			return nil
		}
		return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, client)
	}

	chat, err := llm.NewChatClient(ctx, cfg, client)
	if err != nil {
		log.Warn("curation disabled", "provider", cfg.Curation.Provider, "error", err)
		return nil
	}
	return curation.NewLLMRanker(chat)
}

func newSinks(ctx context.Context, cfg config.Config, client *http.Client, log *slog.Logger) []ports.Sink {
	d := cfg.Delivery
	renderer := render.NewHTMLRenderer()
	envelope := mail.EnvelopeFromConfig(d.Email)

	var sinks []ports.Sink
	switch strings.ToLower(d.Email.Transport) {
	case "smtp":
		if d.Email.SMTP.User != "" && d.Email.SMTP.Password != "" {
			sinks = append(sinks, mail.NewSMTPSink(d.Email.SMTP, envelope, renderer))
		} else {
			log.Warn("smtp credentials missing, email disabled")
		}
	case "gmail":
		if fileExists(d.Email.Gmail.CredentialsFile) && fileExists(d.Email.Gmail.TokenFile) {
			sink, err := mail.NewGmailSink(ctx, d.Email.Gmail, envelope, renderer)
			if err != nil {
				log.Warn("gmail sink disabled", "error", err)
			} else {
				sinks = append(sinks, sink)
			}
		} else {
			log.Warn("gmail credentials or token missing, email disabled",
				"credentials", d.Email.Gmail.CredentialsFile, "token", d.Email.Gmail.TokenFile)
		}
	case "", "none":
	default:
		log.Warn("unknown email transport, email disabled", "transport", d.Email.Transport)
	}

	if d.Slack.WebhookURL != "" {
		sinks = append(sinks, webhook.NewSlackSink(d.Slack.WebhookURL, client))
	}
	if d.Telegram.BotToken != "" && d.Telegram.ChatID != "" {
		sinks = append(sinks, telegram.NewNotifier(d.Telegram.BotToken, d.Telegram.ChatID, client))
	}
	if d.Archive.Path != "" {
		sinks = append(sinks, archive.NewAtomSink(d.Archive.Path, d.Archive.FeedLink, d.Archive.MaxEntries))
	}
	return sinks
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
