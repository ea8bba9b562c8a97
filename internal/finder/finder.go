// Package finder locates earlier posts that a new post should reply to.
package finder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abdulachik/easypost/internal/clock"
	"github.com/abdulachik/easypost/internal/errors"
	"github.com/abdulachik/easypost/internal/matcher"
	"github.com/abdulachik/easypost/internal/twitter"
)

// Mode selects where candidate posts come from.
type Mode string

const (
	// ModeOwnHistory lists the caller's own posts and filters them locally.
	ModeOwnHistory Mode = "own-history"
	// ModeSurface searches recent posts platform-wide with the query as is.
	ModeSurface Mode = "surface"
)

// SessionFactory creates authenticated sessions.
type SessionFactory interface {
	NewSession(ctx context.Context) (*twitter.Session, error)
}

// ResolvedPost is a matching post with its author and permalink.
type ResolvedPost struct {
	ID             string
	Text           string
	AuthorUsername string
	URL            string
}

// Config holds configuration for the finder.
type Config struct {
	Mode          Mode
	ImagesEnabled bool
	Sessions      SessionFactory
	Clock         clock.Clock
	DayStartHour  int    // UTC hour that starts the posting day
	SiteHost      string // Permalink host (default: twitter.com)
	CacheSize     int    // Author cache entries (default: 256)
}

// Finder resolves candidate parent posts for a query.
type Finder struct {
	mode     Mode
	matcher  matcher.Matcher
	sessions SessionFactory
	siteHost string
	cutoff   time.Time
	authors  *lru.Cache[string, string]
}

// New creates a Finder. The day-start cutoff is fixed at construction.
func New(cfg Config) (*Finder, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeOwnHistory
	}
	if mode != ModeOwnHistory && mode != ModeSurface {
		return nil, errors.Configuration("unknown search mode %q", mode)
	}
	if cfg.Sessions == nil {
		return nil, errors.Configuration("finder requires a session factory")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	siteHost := cfg.SiteHost
	if siteHost == "" {
		siteHost = "twitter.com"
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 256
	}
	authors, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create author cache: %w", err)
	}

	return &Finder{
		mode:     mode,
		matcher:  matcher.ForImages(cfg.ImagesEnabled),
		sessions: cfg.Sessions,
		siteHost: siteHost,
		cutoff:   DayStartCutoff(clk.Now(), cfg.DayStartHour),
		authors:  authors,
	}, nil
}

// Mode returns the configured search mode.
func (f *Finder) Mode() Mode {
	return f.mode
}

// Cutoff returns the lower time bound applied to every listing.
func (f *Finder) Cutoff() time.Time {
	return f.cutoff
}

// DayStartCutoff returns hour:00 UTC on now's UTC calendar date. A cutoff
// later than now moves back one day so listings never start in the future.
func DayStartCutoff(now time.Time, hour int) time.Time {
	now = now.UTC()
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
	if cutoff.After(now) {
		cutoff = cutoff.AddDate(0, 0, -1)
	}
	return cutoff
}

// Permalink builds the canonical URL of a post.
func Permalink(host, username, id string) string {
	return fmt.Sprintf("https://%s/%s/status/%s", host, username, id)
}

// FindMatchingPosts returns the posts matching query in provider order,
// along with the session used to find them. No matches yields an empty
// slice, not an error.
func (f *Finder) FindMatchingPosts(ctx context.Context, query string, maxResults int) ([]ResolvedPost, *twitter.Session, error) {
	session, err := f.sessions.NewSession(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.TypeCredential, "create session")
	}

	candidates, err := f.candidates(ctx, session, query, maxResults)
	if err != nil {
		return nil, session, errors.Wrap(err, errors.TypeProvider, "find candidate posts")
	}

	results := make([]ResolvedPost, 0, len(candidates))
	for _, c := range candidates {
		username, err := f.authorOf(ctx, session, c.ID)
		if err != nil {
			return nil, session, errors.Wrap(err, errors.TypeProvider, "resolve post author")
		}
		results = append(results, ResolvedPost{
			ID:             c.ID,
			Text:           c.Text,
			AuthorUsername: username,
			URL:            Permalink(f.siteHost, username, c.ID),
		})
	}

	slog.Debug("found matching posts",
		"query", query,
		"mode", string(f.mode),
		"count", len(results),
	)

	return results, session, nil
}

func (f *Finder) candidates(ctx context.Context, session *twitter.Session, query string, maxResults int) ([]twitter.Tweet, error) {
	params := twitter.ListParams{MaxResults: maxResults, StartTime: f.cutoff}

	if f.mode == ModeSurface {
		return session.SearchRecent(ctx, query, params)
	}

	tweets, err := session.UserTweets(ctx, session.UserID, params)
	if err != nil {
		return nil, err
	}

	var matched []twitter.Tweet
	for _, t := range tweets {
		if f.matcher.Match(t.Text, query) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func (f *Finder) authorOf(ctx context.Context, session *twitter.Session, tweetID string) (string, error) {
	if username, ok := f.authors.Get(tweetID); ok {
		return username, nil
	}

	_, author, err := session.GetTweetWithAuthor(ctx, tweetID)
	if err != nil {
		return "", err
	}
	f.authors.Add(tweetID, author.Username)
	return author.Username, nil
}
