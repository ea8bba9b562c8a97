package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Factory builds authenticated handles from one credential set. Handles
// built by the same factory share a request limiter.
type Factory struct {
	cfg     Config
	limiter *rate.Limiter
}

// NewFactory creates a Factory, applying defaults to cfg.
func NewFactory(cfg Config) *Factory {
	cfg.setDefaults()
	return &Factory{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
	}
}

// Session is an authenticated v2 handle whose identity has been confirmed.
type Session struct {
	client   *client
	UserID   string
	Username string
}

// NewSession builds a session and confirms the caller's identity.
// When the identity check fails no session is returned.
func (f *Factory) NewSession(ctx context.Context) (*Session, error) {
	c, err := newClient(ctx, f.cfg, f.limiter)
	if err != nil {
		slog.Error("error creating client", "error", err)
		return nil, err
	}

	s := &Session{client: c}
	me, err := s.Me(ctx)
	if err != nil {
		slog.Error("error creating client", "error", err)
		return nil, fmt.Errorf("verify identity: %w", err)
	}
	s.UserID = me.ID
	s.Username = me.Username

	slog.Info("client created successfully", "user_id", me.ID, "username", me.Username)
	return s, nil
}

// Me returns the authenticated user.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var resp userResponse
	if err := s.client.getJSON(ctx, authUser, s.client.cfg.APIBaseURL+"/2/users/me", &resp); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &resp.Data, nil
}

// CreateTweet publishes a post.
func (s *Session) CreateTweet(ctx context.Context, req CreateTweetRequest) (*Tweet, error) {
	var resp tweetResponse
	if err := s.client.postJSON(ctx, s.client.cfg.APIBaseURL+"/2/tweets", req, &resp); err != nil {
		return nil, fmt.Errorf("create tweet: %w", err)
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("create tweet: response has no id")
	}
	return &resp.Data, nil
}

// ListParams bounds a timeline or search listing.
type ListParams struct {
	MaxResults int
	StartTime  time.Time
}

func (p ListParams) values(minResults, maxResults int) url.Values {
	v := url.Values{}
	v.Set("max_results", fmt.Sprint(clamp(p.MaxResults, minResults, maxResults)))
	if !p.StartTime.IsZero() {
		v.Set("start_time", p.StartTime.UTC().Format(time.RFC3339))
	}
	return v
}

// UserTweets lists a user's posts, most recent first.
func (s *Session) UserTweets(ctx context.Context, userID string, params ListParams) ([]Tweet, error) {
	u := fmt.Sprintf("%s/2/users/%s/tweets?%s", s.client.cfg.APIBaseURL, url.PathEscape(userID), params.values(5, 100).Encode())

	var resp TweetListResponse
	if err := s.client.getJSON(ctx, authApp, u, &resp); err != nil {
		return nil, fmt.Errorf("list user tweets: %w", err)
	}
	return resp.Data, nil
}

// SearchRecent runs a recent search across the platform.
func (s *Session) SearchRecent(ctx context.Context, query string, params ListParams) ([]Tweet, error) {
	v := params.values(10, 100)
	v.Set("query", query)
	u := s.client.cfg.APIBaseURL + "/2/tweets/search/recent?" + v.Encode()

	var resp TweetListResponse
	if err := s.client.getJSON(ctx, authApp, u, &resp); err != nil {
		return nil, fmt.Errorf("search recent tweets: %w", err)
	}
	return resp.Data, nil
}

// GetTweetWithAuthor fetches a post with its author expanded.
func (s *Session) GetTweetWithAuthor(ctx context.Context, id string) (*Tweet, *User, error) {
	v := url.Values{}
	v.Set("expansions", "author_id")
	v.Set("user.fields", "username")
	u := fmt.Sprintf("%s/2/tweets/%s?%s", s.client.cfg.APIBaseURL, url.PathEscape(id), v.Encode())

	var resp tweetWithIncludesResponse
	if err := s.client.getJSON(ctx, authApp, u, &resp); err != nil {
		return nil, nil, fmt.Errorf("get tweet %s: %w", id, err)
	}
	if len(resp.Includes.Users) == 0 {
		return nil, nil, fmt.Errorf("get tweet %s: %w", id, ErrAuthorNotIncluded)
	}
	return &resp.Data, &resp.Includes.Users[0], nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
