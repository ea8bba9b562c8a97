package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abdulachik/easypost/internal/clock"
	"github.com/abdulachik/easypost/internal/config"
	"github.com/abdulachik/easypost/internal/db"
	"github.com/abdulachik/easypost/internal/finder"
	"github.com/abdulachik/easypost/internal/poster"
	"github.com/abdulachik/easypost/internal/twitter"
)

// App is the main application container holding all dependencies.
type App struct {
	Config  *config.Config
	Store   *db.Store
	Clock   clock.Clock
	Twitter *twitter.Factory
	Finder  *finder.Finder
	Poster  *poster.TwitterPoster
}

// Option adjusts how New wires the application.
type Option func(*options)

type options struct {
	clock   clock.Clock
	twitter func(*twitter.Config)
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTwitterConfig lets the caller adjust the API client configuration,
// for example to point it at another base URL.
func WithTwitterConfig(fn func(*twitter.Config)) Option {
	return func(o *options) { o.twitter = fn }
}

// New creates a new application instance with all dependencies wired up.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	twitterCfg := twitter.Config{
		Credentials: twitter.Credentials{
			BearerToken:       cfg.Credentials.BearerToken,
			AccessToken:       cfg.Credentials.AccessToken,
			AccessTokenSecret: cfg.Credentials.AccessTokenSecret,
			ConsumerKey:       cfg.Credentials.APIKey,
			ConsumerSecret:    cfg.Credentials.APIKeySecret,
		},
		WaitOnRateLimit: cfg.WaitOnRateLimit,
	}
	if o.twitter != nil {
		o.twitter(&twitterCfg)
	}
	factory := twitter.NewFactory(twitterCfg)

	f, err := finder.New(finder.Config{
		Mode:          finder.Mode(cfg.SearchMode),
		ImagesEnabled: cfg.WithImages,
		Sessions:      factory,
		Clock:         o.clock,
		DayStartHour:  cfg.DayStartHour,
		SiteHost:      cfg.SiteHost,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	p := poster.NewTwitterPoster(poster.TwitterConfig{
		Sessions:      factory,
		Finder:        f,
		Clock:         o.clock,
		ImagesEnabled: cfg.WithImages,
		HeaderDelay:   cfg.HeaderDelay,
		ChainDelay:    cfg.ChainDelay,
		SiteHost:      cfg.SiteHost,
	})

	return &App{
		Config:  cfg,
		Store:   store,
		Clock:   o.clock,
		Twitter: factory,
		Finder:  f,
		Poster:  p,
	}, nil
}

// Journal records the posts of result. A nil or empty result is a no-op.
func (a *App) Journal(ctx context.Context, result *poster.PostResult) error {
	if result == nil || len(result.Posts) == 0 {
		return nil
	}

	now := a.Clock.Now()
	params := make([]db.RecordPostParams, 0, len(result.Posts))
	for _, p := range result.Posts {
		params = append(params, db.RecordPostParams{
			TweetID:    p.ID,
			ParentID:   sql.NullString{String: p.ParentID, Valid: p.ParentID != ""},
			Text:       p.Text,
			URL:        p.URL,
			MediaCount: int64(len(p.MediaIDs)),
			PostedAt:   now,
		})
	}

	if err := a.Store.RecordPosts(ctx, params); err != nil {
		return fmt.Errorf("journal posts: %w", err)
	}
	return nil
}

// DayStart returns the start of the current posting day.
func (a *App) DayStart() time.Time {
	return finder.DayStartCutoff(a.Clock.Now(), a.Config.DayStartHour)
}

// LastPostToday returns the newest journaled post of the current posting
// day, or nil when nothing was posted yet.
func (a *App) LastPostToday(ctx context.Context) (*db.Post, error) {
	post, err := a.Store.LastPostSince(ctx, a.DayStart())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last journaled post: %w", err)
	}
	return &post, nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
