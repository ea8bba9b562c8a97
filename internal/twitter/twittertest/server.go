// Package twittertest provides an in-memory fake of the Twitter API
// endpoints used by easypost. Every request is recorded so tests can
// assert on call counts and bodies.
package twittertest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/abdulachik/easypost/internal/twitter"
)

// Call is one recorded request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Auth   string
}

// Route returns "METHOD /path", the key used by Fail and CallsTo.
func (c Call) Route() string {
	return c.Method + " " + c.Path
}

// Server is a fake Twitter API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	me       twitter.User
	timeline []twitter.Tweet // most recent first
	search   func(query string) []twitter.Tweet
	authors  map[string]twitter.User
	failures map[string]int
	calls    []Call
	nextID   int
	nextMID  int
}

// NewServer starts a fake API authenticated as @me (id "1").
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		me:       twitter.User{ID: "1", Name: "Me", Username: "me"},
		authors:  make(map[string]twitter.User),
		failures: make(map[string]int),
		nextID:   1000,
		nextMID:  5000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /2/users/me", s.handleMe)
	mux.HandleFunc("GET /2/users/{id}/tweets", s.handleUserTweets)
	mux.HandleFunc("GET /2/tweets/search/recent", s.handleSearch)
	mux.HandleFunc("GET /2/tweets/{id}", s.handleGetTweet)
	mux.HandleFunc("POST /2/tweets", s.handleCreateTweet)
	mux.HandleFunc("POST /1.1/media/upload.json", s.handleUpload)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// Config returns a client configuration pointed at the fake.
func (s *Server) Config() twitter.Config {
	return twitter.Config{
		Credentials: twitter.Credentials{
			BearerToken:       "bearer",
			AccessToken:       "token",
			AccessTokenSecret: "token-secret",
			ConsumerKey:       "key",
			ConsumerSecret:    "key-secret",
		},
		APIBaseURL:           s.URL,
		UploadBaseURL:        s.URL,
		RequestInterval:      time.Millisecond,
		MaxRetries:           -1,
		RetryInitialInterval: time.Millisecond,
	}
}

// Me returns the authenticated user.
func (s *Server) Me() twitter.User {
	return s.me
}

// SetTimeline replaces the authenticated user's posts, most recent first.
func (s *Server) SetTimeline(tweets ...twitter.Tweet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline = append([]twitter.Tweet(nil), tweets...)
	for _, tw := range tweets {
		if _, ok := s.authors[tw.ID]; !ok {
			s.authors[tw.ID] = s.me
		}
	}
}

// SetSearch installs the recent-search behaviour. Without it search
// returns no results.
func (s *Server) SetSearch(fn func(query string) []twitter.Tweet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = fn
}

// SetAuthor records the author returned for a post id.
func (s *Server) SetAuthor(tweetID string, user twitter.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[tweetID] = user
}

// Fail makes the next n requests to route ("POST /2/tweets") fail with
// a 403.
func (s *Server) Fail(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = n
}

// Calls returns every recorded request in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded requests for route.
func (s *Server) CallsTo(route string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Route() == route {
			out = append(out, c)
		}
	}
	return out
}

// Created decodes the bodies of every create-post request.
func (s *Server) Created(t testing.TB) []twitter.CreateTweetRequest {
	t.Helper()
	var out []twitter.CreateTweetRequest
	for _, c := range s.CallsTo("POST /2/tweets") {
		var req twitter.CreateTweetRequest
		if err := json.Unmarshal(c.Body, &req); err != nil {
			t.Fatalf("decode create body: %v", err)
		}
		out = append(out, req)
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		call := Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		remaining := s.failures[call.Route()]
		if remaining > 0 {
			s.failures[call.Route()] = remaining - 1
		}
		s.mu.Unlock()

		if remaining > 0 {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"title":  "Forbidden",
				"detail": fmt.Sprintf("injected failure for %s", call.Route()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.me})
}

func (s *Server) handleUserTweets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var tweets []twitter.Tweet
	if r.PathValue("id") == s.me.ID {
		tweets = append(tweets, s.timeline...)
	}
	s.mu.Unlock()

	writeList(w, limit(tweets, r))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fn := s.search
	s.mu.Unlock()

	var tweets []twitter.Tweet
	if fn != nil {
		tweets = fn(r.URL.Query().Get("query"))
	}
	writeList(w, limit(tweets, r))
}

func (s *Server) handleGetTweet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	author, ok := s.authors[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]string{{"message": "Could not find tweet with id: [" + id + "]."}},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":     twitter.Tweet{ID: id, AuthorID: author.ID},
		"includes": map[string]any{"users": []twitter.User{author}},
	})
}

func (s *Server) handleCreateTweet(w http.ResponseWriter, r *http.Request) {
	var req twitter.CreateTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	s.nextID++
	tweet := twitter.Tweet{ID: strconv.Itoa(s.nextID), Text: req.Text, AuthorID: s.me.ID}
	s.timeline = append([]twitter.Tweet{tweet}, s.timeline...)
	s.authors[tweet.ID] = s.me
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"data": twitter.Tweet{ID: tweet.ID, Text: tweet.Text}})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, _, err := r.FormFile("media"); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": []map[string]string{{"message": "media parameter is missing"}},
		})
		return
	}

	s.mu.Lock()
	s.nextMID++
	id := strconv.Itoa(s.nextMID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"media_id_string": id})
}

func limit(tweets []twitter.Tweet, r *http.Request) []twitter.Tweet {
	n, err := strconv.Atoi(r.URL.Query().Get("max_results"))
	if err == nil && n > 0 && len(tweets) > n {
		return tweets[:n]
	}
	return tweets
}

func writeList(w http.ResponseWriter, tweets []twitter.Tweet) {
	resp := map[string]any{"meta": map[string]int{"result_count": len(tweets)}}
	if len(tweets) > 0 {
		resp["data"] = tweets
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
