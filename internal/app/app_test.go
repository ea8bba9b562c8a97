package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/easypost/internal/clock"
	"github.com/abdulachik/easypost/internal/config"
	"github.com/abdulachik/easypost/internal/errors"
	"github.com/abdulachik/easypost/internal/poster"
	"github.com/abdulachik/easypost/internal/twitter"
	"github.com/abdulachik/easypost/internal/twitter/twittertest"
)

func newTestApp(t *testing.T, api *twittertest.Server, clk *clock.FakeClock) *App {
	t.Helper()

	cfg := &config.Config{
		Credentials: config.Credentials{
			BearerToken:       "bearer",
			AccessToken:       "token",
			AccessTokenSecret: "token-secret",
			APIKey:            "key",
			APIKeySecret:      "key-secret",
		},
		SearchMode:   config.SearchModeOwnHistory,
		HeaderDelay:  10 * time.Second,
		ChainDelay:   25 * time.Second,
		DayStartHour: 3,
		SiteHost:     "twitter.com",
		DatabasePath: filepath.Join(t.TempDir(), "easypost.db"),
	}

	a, err := New(context.Background(), cfg,
		WithClock(clk),
		WithTwitterConfig(func(c *twitter.Config) {
			fake := api.Config()
			c.APIBaseURL = fake.APIBaseURL
			c.UploadBaseURL = fake.UploadBaseURL
			c.RequestInterval = fake.RequestInterval
			c.MaxRetries = fake.MaxRetries
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew(t *testing.T) {
	api := twittertest.NewServer(t)
	clk := clock.Fake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	a := newTestApp(t, api, clk)

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Finder)
	assert.NotNil(t, a.Poster)
	assert.Equal(t, "twitter", a.Poster.Platform())
	assert.Equal(t, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), a.Finder.Cutoff())
	assert.NoError(t, a.Poster.ValidateCredentials(context.Background()))
}

func TestNew_InvalidSearchMode(t *testing.T) {
	cfg := &config.Config{
		SearchMode:   "global",
		DatabasePath: filepath.Join(t.TempDir(), "easypost.db"),
	}

	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestApp_JournalAndContinue(t *testing.T) {
	api := twittertest.NewServer(t)
	clk := clock.Fake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	a := newTestApp(t, api, clk)
	ctx := context.Background()

	last, err := a.LastPostToday(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	first, err := a.Poster.PublishImmediate(ctx, "first of the day")
	require.NoError(t, err)
	require.NoError(t, a.Journal(ctx, first))

	last, err = a.LastPostToday(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, first.Posts[0].ID, last.TweetID)
	assert.Equal(t, "https://twitter.com/me/status/"+last.TweetID, last.URL)

	clk.Advance(time.Hour)
	second, err := a.Poster.PublishOrReply(ctx, "continued", true, last.TweetID)
	require.NoError(t, err)
	require.NoError(t, a.Journal(ctx, second))

	last, err = a.LastPostToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Posts[0].ID, last.TweetID)
	assert.Equal(t, first.Posts[0].ID, last.ParentID.String)

	// The next posting day starts fresh.
	clk.Advance(24 * time.Hour)
	last, err = a.LastPostToday(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestApp_JournalEmptyResult(t *testing.T) {
	api := twittertest.NewServer(t)
	a := newTestApp(t, api, clock.Fake(time.Now()))

	assert.NoError(t, a.Journal(context.Background(), nil))
	assert.NoError(t, a.Journal(context.Background(), &poster.PostResult{}))

	count, err := a.Store.CountPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestApp_DayStartUsesUTCDate(t *testing.T) {
	api := twittertest.NewServer(t)
	evening := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	a := newTestApp(t, api, clock.Fake(evening))

	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), a.DayStart())
	assert.Equal(t, a.DayStart(), a.Finder.Cutoff())
}
