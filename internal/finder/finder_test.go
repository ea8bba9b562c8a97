package finder

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/easypost/internal/clock"
	"github.com/abdulachik/easypost/internal/errors"
	"github.com/abdulachik/easypost/internal/twitter"
	"github.com/abdulachik/easypost/internal/twitter/twittertest"
)

var testNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func newFinder(t *testing.T, api *twittertest.Server, mode Mode, images bool) *Finder {
	t.Helper()
	f, err := New(Config{
		Mode:          mode,
		ImagesEnabled: images,
		Sessions:      twitter.NewFactory(api.Config()),
		Clock:         clock.Fake(testNow),
		DayStartHour:  3,
	})
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f, err := New(Config{Sessions: twitter.NewFactory(twitter.Config{}), Clock: clock.Fake(testNow), DayStartHour: 3})
		require.NoError(t, err)
		assert.Equal(t, ModeOwnHistory, f.Mode())
		assert.Equal(t, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), f.Cutoff())
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(Config{Mode: "global", Sessions: twitter.NewFactory(twitter.Config{})})
		assert.ErrorIs(t, err, errors.ErrConfiguration)
	})

	t.Run("missing session factory", func(t *testing.T) {
		_, err := New(Config{})
		assert.ErrorIs(t, err, errors.ErrConfiguration)
	})
}

func TestDayStartCutoff(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		hour     int
		expected time.Time
	}{
		{
			name:     "after day start",
			now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			hour:     3,
			expected: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "exactly at day start",
			now:      time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
			hour:     3,
			expected: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "before day start uses previous day",
			now:      time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC),
			hour:     3,
			expected: time.Date(2024, 4, 30, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "midnight hour",
			now:      time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC),
			hour:     0,
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "local time west of UTC uses the UTC date",
			now:      time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60)),
			hour:     3,
			expected: time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "local time east of UTC uses the UTC date",
			now:      time.Date(2024, 5, 2, 1, 0, 0, 0, time.FixedZone("UTC+9", 9*60*60)),
			hour:     3,
			expected: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DayStartCutoff(tt.now, tt.hour))
		})
	}
}

func TestPermalink(t *testing.T) {
	assert.Equal(t, "https://twitter.com/me/status/42", Permalink("twitter.com", "me", "42"))
	assert.Equal(t, "https://x.com/me/status/42", Permalink("x.com", "me", "42"))
}

func TestFindMatchingPosts_OwnHistory(t *testing.T) {
	api := twittertest.NewServer(t)
	api.SetTimeline(
		twitter.Tweet{ID: "3", Text: "Hello world\nmore"},
		twitter.Tweet{ID: "2", Text: "Something else"},
		twitter.Tweet{ID: "1", Text: "Hello world\nearlier"},
	)
	f := newFinder(t, api, ModeOwnHistory, false)

	posts, session, err := f.FindMatchingPosts(context.Background(), "Hello world - extra", 10)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, api.Me().ID, session.UserID)

	require.Len(t, posts, 2)
	assert.Equal(t, "3", posts[0].ID)
	assert.Equal(t, "1", posts[1].ID)
	assert.Equal(t, "me", posts[0].AuthorUsername)
	assert.Equal(t, "https://twitter.com/me/status/3", posts[0].URL)

	listing := api.CallsTo("GET /2/users/1/tweets")
	require.Len(t, listing, 1)
	assert.Equal(t, "2024-05-01T03:00:00Z", listing[0].Query.Get("start_time"))
	assert.Equal(t, "10", listing[0].Query.Get("max_results"))
	assert.Empty(t, api.CallsTo("GET /2/tweets/search/recent"))
}

func TestFindMatchingPosts_NoMatches(t *testing.T) {
	t.Run("empty timeline", func(t *testing.T) {
		api := twittertest.NewServer(t)
		f := newFinder(t, api, ModeOwnHistory, false)

		posts, _, err := f.FindMatchingPosts(context.Background(), "Hello - x", 10)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("nothing matches", func(t *testing.T) {
		api := twittertest.NewServer(t)
		api.SetTimeline(twitter.Tweet{ID: "1", Text: "Hello there"})
		f := newFinder(t, api, ModeOwnHistory, false)

		posts, _, err := f.FindMatchingPosts(context.Background(), "Goodbye - extra", 10)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
		assert.Empty(t, api.CallsTo("GET /2/tweets/1"))
	})
}

func TestFindMatchingPosts_ImageAware(t *testing.T) {
	timeline := []twitter.Tweet{{ID: "9", Text: "Caption https://t.co/xyz"}}

	t.Run("images enabled matches caption", func(t *testing.T) {
		api := twittertest.NewServer(t)
		api.SetTimeline(timeline...)
		f := newFinder(t, api, ModeOwnHistory, true)

		posts, _, err := f.FindMatchingPosts(context.Background(), "Caption - x", 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "9", posts[0].ID)
	})

	t.Run("images disabled does not", func(t *testing.T) {
		api := twittertest.NewServer(t)
		api.SetTimeline(timeline...)
		f := newFinder(t, api, ModeOwnHistory, false)

		posts, _, err := f.FindMatchingPosts(context.Background(), "Caption - x", 10)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestFindMatchingPosts_Surface(t *testing.T) {
	api := twittertest.NewServer(t)
	var gotQuery string
	api.SetSearch(func(query string) []twitter.Tweet {
		gotQuery = query
		return []twitter.Tweet{
			{ID: "20", Text: "unrelated text from the provider"},
			{ID: "10", Text: "Daily log"},
		}
	})
	api.SetAuthor("20", twitter.User{ID: "7", Username: "someone"})
	api.SetAuthor("10", twitter.User{ID: "8", Username: "other"})

	f, err := New(Config{
		Mode:         ModeSurface,
		Sessions:     twitter.NewFactory(api.Config()),
		Clock:        clock.Fake(testNow),
		DayStartHour: 3,
		SiteHost:     "x.com",
	})
	require.NoError(t, err)

	posts, _, err := f.FindMatchingPosts(context.Background(), "Daily log -is:retweet", 3)
	require.NoError(t, err)

	assert.Equal(t, "Daily log -is:retweet", gotQuery)
	require.Len(t, posts, 2)
	assert.Equal(t, "20", posts[0].ID)
	assert.Equal(t, "https://x.com/someone/status/20", posts[0].URL)
	assert.Equal(t, "other", posts[1].AuthorUsername)

	search := api.CallsTo("GET /2/tweets/search/recent")
	require.Len(t, search, 1)
	assert.Equal(t, "10", search[0].Query.Get("max_results"))
	assert.True(t, strings.HasPrefix(search[0].Auth, "Bearer "))
	assert.Empty(t, api.CallsTo("GET /2/users/1/tweets"))
}

func TestFindMatchingPosts_CachesAuthors(t *testing.T) {
	api := twittertest.NewServer(t)
	api.SetTimeline(twitter.Tweet{ID: "5", Text: "Hello"})
	f := newFinder(t, api, ModeOwnHistory, false)

	for i := 0; i < 2; i++ {
		posts, _, err := f.FindMatchingPosts(context.Background(), "Hello", 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
	}

	assert.Len(t, api.CallsTo("GET /2/tweets/5"), 1)
	assert.Len(t, api.CallsTo("GET /2/users/me"), 2)
}

func TestFindMatchingPosts_Errors(t *testing.T) {
	t.Run("session failure", func(t *testing.T) {
		api := twittertest.NewServer(t)
		api.Fail("GET /2/users/me", 1)
		f := newFinder(t, api, ModeOwnHistory, false)

		posts, session, err := f.FindMatchingPosts(context.Background(), "Hello", 10)
		assert.Nil(t, posts)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, errors.ErrCredential)
	})

	t.Run("listing failure", func(t *testing.T) {
		api := twittertest.NewServer(t)
		api.Fail("GET /2/users/1/tweets", 1)
		f := newFinder(t, api, ModeOwnHistory, false)

		_, _, err := f.FindMatchingPosts(context.Background(), "Hello", 10)
		assert.ErrorIs(t, err, errors.ErrProvider)

		var apiErr *twitter.APIError
		assert.True(t, stderrors.As(err, &apiErr))
	})

	t.Run("author lookup failure", func(t *testing.T) {
		api := twittertest.NewServer(t)
		api.SetTimeline(twitter.Tweet{ID: "5", Text: "Hello"})
		api.Fail("GET /2/tweets/5", 1)
		f := newFinder(t, api, ModeOwnHistory, false)

		_, _, err := f.FindMatchingPosts(context.Background(), "Hello", 10)
		assert.ErrorIs(t, err, errors.ErrProvider)
	})
}
