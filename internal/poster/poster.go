package poster

import (
	"context"
	stderrors "errors"
)

// ErrParentNotFound aborts an image chain when the post just published
// cannot be found again to reply to.
var ErrParentNotFound = stderrors.New("parent post not found")

// CaptionedImage is one image of a chain with the text posted alongside it.
type CaptionedImage struct {
	Caption string
	Path    string
}

// PublishedPost is one post created by a publish call.
type PublishedPost struct {
	ID       string
	Text     string
	ParentID string // Empty for standalone posts
	MediaIDs []string
	URL      string
}

// PostResult represents the result of a publish call. When a sequence
// aborts, the posts created before the failure are still listed.
type PostResult struct {
	Posts []PublishedPost
}

// Last returns the most recently created post, or nil.
func (r *PostResult) Last() *PublishedPost {
	if r == nil || len(r.Posts) == 0 {
		return nil
	}
	return &r.Posts[len(r.Posts)-1]
}

func (r *PostResult) add(p PublishedPost) {
	r.Posts = append(r.Posts, p)
}

// Poster is the interface for publishing to a social media platform.
type Poster interface {
	// Platform returns the name of the platform.
	Platform() string

	// PublishImmediate publishes a standalone post.
	PublishImmediate(ctx context.Context, text string) (*PostResult, error)

	// PublishOrReply publishes a post, as a reply to parentID when isReply is set.
	PublishOrReply(ctx context.Context, text string, isReply bool, parentID string) (*PostResult, error)

	// ValidateCredentials checks if the credentials are valid.
	ValidateCredentials(ctx context.Context) error
}
