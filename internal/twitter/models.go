package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error definitions
var (
	ErrMissingAppCredentials    = errors.New("missing app key or secret")
	ErrMissingAccessCredentials = errors.New("missing access token or secret")
	ErrRateLimited              = errors.New("rate limit exceeded")
	ErrAuthorNotIncluded        = errors.New("author not included in response")
)

// Tweet is a post as returned by the v2 API.
type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// User is an account as returned by the v2 API.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
}

// Media is an uploaded media object.
type Media struct {
	MediaID string `json:"media_id_string"`
	Size    int64  `json:"size,omitempty"`
}

// CreateTweetRequest is the body of POST /2/tweets.
type CreateTweetRequest struct {
	Text  string      `json:"text"`
	Reply *TweetReply `json:"reply,omitempty"`
	Media *TweetMedia `json:"media,omitempty"`
}

// TweetReply marks a post as a reply to an earlier one.
type TweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

// TweetMedia attaches previously uploaded media to a post.
type TweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type userResponse struct {
	Data User `json:"data"`
}

type tweetResponse struct {
	Data Tweet `json:"data"`
}

type tweetWithIncludesResponse struct {
	Data     Tweet `json:"data"`
	Includes struct {
		Users []User `json:"users"`
	} `json:"includes"`
}

// Meta is the paging metadata of list responses.
type Meta struct {
	ResultCount int    `json:"result_count"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
}

// TweetListResponse is the body of timeline and search responses.
type TweetListResponse struct {
	Data []Tweet `json:"data"`
	Meta Meta    `json:"meta"`
}

// ErrorResponse covers both error shapes the API returns: a problem
// document (title/detail) and a list of errors.
type ErrorResponse struct {
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
	Errors []struct {
		Message string `json:"message"`
		Code    int    `json:"code,omitempty"`
	} `json:"errors,omitempty"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("twitter API error: status code %d", e.StatusCode)
	}
	return fmt.Sprintf("twitter API error: %s", e.Message)
}

// parseAPIError builds an APIError from a response body. Bodies that are
// not JSON still produce an error carrying the status code.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return apiErr
	}

	switch {
	case len(errResp.Errors) > 0:
		messages := make([]string, 0, len(errResp.Errors))
		for _, e := range errResp.Errors {
			messages = append(messages, e.Message)
		}
		apiErr.Message = strings.Join(messages, "; ")
	case errResp.Detail != "":
		apiErr.Message = errResp.Detail
	default:
		apiErr.Message = errResp.Title
	}
	return apiErr
}
