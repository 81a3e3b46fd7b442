package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"

	"github.com/pep299/meeting-summarizer/internal/cache"
	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/gemini"
	"github.com/pep299/meeting-summarizer/internal/generator"
	"github.com/pep299/meeting-summarizer/internal/handlers"
	"github.com/pep299/meeting-summarizer/internal/llm"
	"github.com/pep299/meeting-summarizer/internal/logging"
	"github.com/pep299/meeting-summarizer/internal/openai"
	"github.com/pep299/meeting-summarizer/internal/slack"
	"github.com/pep299/meeting-summarizer/internal/summary"
	"github.com/pep299/meeting-summarizer/internal/transcript"
)

// Application holds every component wired from one Config
type Application struct {
	Config     *config.Config
	Summarizer *summary.Summarizer
	Cache      *cache.Manager
	Slack      *slack.Client
	Server     *handlers.Server
	cleanup    func() error
}

type options struct {
	textGen   llm.TextGenerator
	version   string
	generator []generator.Option
}

// Option customizes New
type Option func(*options)

// WithTextGenerator replaces the configured provider
func WithTextGenerator(textGen llm.TextGenerator) Option {
	return func(o *options) {
		o.textGen = textGen
	}
}

// WithVersion sets the version reported over HTTP
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithGeneratorOptions passes extra options to the recovery pipeline
func WithGeneratorOptions(opts ...generator.Option) Option {
	return func(o *options) {
		o.generator = append(o.generator, opts...)
	}
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	textGen := o.textGen
	if textGen == nil {
		var err error
		textGen, err = NewTextGenerator(cfg)
		if err != nil {
			return nil, err
		}
	}

	summarizer, err := NewSummarizer(cfg, textGen, o.generator...)
	if err != nil {
		return nil, err
	}

	cacheManager, err := cache.NewManager(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating cache manager: %w", err)
	}

	slackClient := slack.NewClient(cfg.SlackBotToken, cfg.SlackChannel)

	server, err := handlers.NewServer(cfg, summarizer,
		handlers.WithCache(cacheManager),
		handlers.WithSlack(slackClient),
		handlers.WithVersion(o.version),
	)
	if err != nil {
		_ = cacheManager.Close()
		return nil, fmt.Errorf("creating server: %w", err)
	}

	return &Application{
		Config:     cfg,
		Summarizer: summarizer,
		Cache:      cacheManager,
		Slack:      slackClient,
		Server:     server,
		cleanup:    cacheManager.Close,
	}, nil
}

// NewTextGenerator builds the provider client selected by cfg
func NewTextGenerator(cfg *config.Config) (llm.TextGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case config.ProviderOpenAI:
		client, err := openai.NewClient(openai.Settings{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}

// NewSummarizer wires the recovery pipeline and optional transcript cleanup
// on top of textGen
func NewSummarizer(cfg *config.Config, textGen llm.TextGenerator, genOpts ...generator.Option) (*summary.Summarizer, error) {
	gen, err := generator.NewFromConfig(cfg, textGen, genOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	var opts []summary.Option
	if cfg.NormalizeTranscripts {
		opts = append(opts, summary.WithNormalizer(transcript.Clean))
	}

	s, err := summary.NewSummarizer(gen, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating summarizer: %w", err)
	}
	return s, nil
}

// Handler returns the routed HTTP handler
func (a *Application) Handler() http.Handler {
	return a.Server.SetupRoutes()
}

// Close cleans up application resources
func (a *Application) Close() error {
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}

// StartCacheSweep schedules PurgeExpired on the configured cron spec. It
// returns nil when no cache backend is configured; callers Stop the
// returned scheduler on shutdown.
func (a *Application) StartCacheSweep(ctx context.Context) (*cron.Cron, error) {
	if !a.Cache.Enabled() {
		return nil, nil
	}

	logger := logging.NewLogger("cache-sweep")
	c := cron.New()
	_, err := c.AddFunc(a.Config.CacheCleanupSchedule, func() {
		removed, err := a.Cache.PurgeExpired(ctx)
		if err != nil {
			logger.WithError(err).Error("cache sweep failed")
			return
		}
		logger.WithField("removed", removed).Debug("cache sweep completed")
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling cache sweep %q: %w", a.Config.CacheCleanupSchedule, err)
	}

	c.Start()
	logger.WithField("schedule", a.Config.CacheCleanupSchedule).Info("cache sweep scheduled")
	return c, nil
}
