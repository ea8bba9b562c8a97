package poster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abdulachik/easypost/internal/clock"
	"github.com/abdulachik/easypost/internal/errors"
	"github.com/abdulachik/easypost/internal/finder"
	"github.com/abdulachik/easypost/internal/twitter"
)

// Default pacing of an image chain. The platform's search index takes a
// while to show a new post; these waits give it time before the post is
// looked up again.
const (
	DefaultHeaderDelay = 10 * time.Second
	DefaultChainDelay  = 25 * time.Second
)

// SessionFactory creates the v2 session and the classic media handle.
type SessionFactory interface {
	NewSession(ctx context.Context) (*twitter.Session, error)
	NewUploader(ctx context.Context) (*twitter.Uploader, error)
}

// ParentFinder resolves the posts a new post may reply to.
type ParentFinder interface {
	FindMatchingPosts(ctx context.Context, query string, maxResults int) ([]finder.ResolvedPost, *twitter.Session, error)
}

// TwitterConfig holds configuration for the Twitter poster.
type TwitterConfig struct {
	Sessions      SessionFactory
	Finder        ParentFinder
	Clock         clock.Clock
	ImagesEnabled bool
	HeaderDelay   time.Duration // Wait after the header post of an image chain
	ChainDelay    time.Duration // Wait between chained image replies
	SiteHost      string
	MaxCandidates int // Posts requested when resolving a parent (default: 10)
}

// TwitterPoster publishes standalone posts, replies and image chains.
type TwitterPoster struct {
	sessions      SessionFactory
	finder        ParentFinder
	clock         clock.Clock
	imagesEnabled bool
	headerDelay   time.Duration
	chainDelay    time.Duration
	siteHost      string
	maxCandidates int
}

var _ Poster = (*TwitterPoster)(nil)

// NewTwitterPoster creates a new Twitter poster.
func NewTwitterPoster(cfg TwitterConfig) *TwitterPoster {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	siteHost := cfg.SiteHost
	if siteHost == "" {
		siteHost = "twitter.com"
	}
	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 10
	}

	return &TwitterPoster{
		sessions:      cfg.Sessions,
		finder:        cfg.Finder,
		clock:         clk,
		imagesEnabled: cfg.ImagesEnabled,
		headerDelay:   cfg.HeaderDelay,
		chainDelay:    cfg.ChainDelay,
		siteHost:      siteHost,
		maxCandidates: maxCandidates,
	}
}

// Platform returns the platform name.
func (p *TwitterPoster) Platform() string {
	return "twitter"
}

// ValidateCredentials checks the credentials with an identity lookup.
func (p *TwitterPoster) ValidateCredentials(ctx context.Context) error {
	if _, err := p.session(ctx); err != nil {
		return err
	}
	return nil
}

// PublishImmediate publishes text as a standalone post.
func (p *TwitterPoster) PublishImmediate(ctx context.Context, text string) (*PostResult, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	result := &PostResult{}
	session, err := p.session(ctx)
	if err != nil {
		return p.abort("publish immediate", result, err)
	}
	if err := p.create(ctx, session, result, text, "", nil); err != nil {
		return p.abort("publish immediate", result, err)
	}
	return result, nil
}

// PublishStandaloneOrThreaded publishes text standalone, or when
// sequential is set, as a reply to the first post matching query. When no
// post matches the text is published standalone.
func (p *TwitterPoster) PublishStandaloneOrThreaded(ctx context.Context, text, query string, sequential bool) (*PostResult, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if !sequential {
		return p.PublishImmediate(ctx, text)
	}
	if query == "" {
		return nil, errors.Usage("a threaded post needs a query to find its parent")
	}

	result := &PostResult{}
	candidates, session, err := p.finder.FindMatchingPosts(ctx, query, p.maxCandidates)
	if err != nil {
		return p.abort("publish threaded", result, err)
	}

	parentID := ""
	if len(candidates) > 0 {
		parentID = candidates[0].ID
	} else {
		slog.Info("no parent post found, publishing standalone", "query", query)
	}

	if err := p.create(ctx, session, result, text, parentID, nil); err != nil {
		return p.abort("publish threaded", result, err)
	}
	return result, nil
}

// PublishWithImages publishes images. Without sequential exactly one image
// is attached to text. With sequential, text is posted as a header and
// each image is posted as a reply carrying its caption, every reply
// answering the post before it. Each parent is found again through the
// search index, with HeaderDelay and ChainDelay waits before each lookup.
func (p *TwitterPoster) PublishWithImages(ctx context.Context, text string, images []CaptionedImage, query string, sequential bool) (*PostResult, error) {
	if !p.imagesEnabled {
		return nil, errors.Configuration("image publishing is disabled")
	}
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	if !sequential {
		if len(images) != 1 {
			return nil, errors.Usage("a single image post takes exactly one image, got %d", len(images))
		}
		return p.publishWithImage(ctx, text, images[0].Path, "")
	}

	if query == "" {
		return nil, errors.Usage("an image thread needs a query to find its header")
	}
	if len(images) == 0 {
		return nil, errors.Usage("an image thread needs at least one image")
	}
	for _, img := range images {
		if err := ValidateText(img.Caption); err != nil {
			return nil, err
		}
		if img.Path == "" {
			return nil, errors.Usage("image %q has no path", img.Caption)
		}
		if _, err := os.Stat(img.Path); err != nil {
			return nil, errors.New(errors.TypeUsage, fmt.Sprintf("image %q is not readable", img.Caption), err)
		}
	}

	return p.publishImageChain(ctx, text, images, query)
}

func (p *TwitterPoster) publishImageChain(ctx context.Context, header string, images []CaptionedImage, query string) (*PostResult, error) {
	const op = "publish image thread"
	result := &PostResult{}

	session, err := p.session(ctx)
	if err != nil {
		return p.abort(op, result, err)
	}
	if err := p.create(ctx, session, result, header, "", nil); err != nil {
		return p.abort(op, result, err)
	}

	parentID, err := p.resolveParent(ctx, p.headerDelay, query)
	if err != nil {
		return p.abort(op, result, err)
	}

	uploader, err := p.uploader(ctx)
	if err != nil {
		return p.abort(op, result, err)
	}

	for i, img := range images {
		media, err := uploader.UploadMedia(ctx, img.Path)
		if err != nil {
			return p.abort(op, result, errors.Wrap(err, errors.TypeProvider, "upload media"))
		}
		if err := p.create(ctx, session, result, img.Caption, parentID, []string{media.MediaID}); err != nil {
			return p.abort(op, result, err)
		}

		if i == len(images)-1 {
			break
		}
		parentID, err = p.resolveParent(ctx, p.chainDelay, ChainQuery(img.Caption))
		if err != nil {
			return p.abort(op, result, err)
		}
	}

	return result, nil
}

// resolveParent waits for the search index and returns the id of the
// first post matching query.
func (p *TwitterPoster) resolveParent(ctx context.Context, delay time.Duration, query string) (string, error) {
	if err := clock.Wait(ctx, p.clock, delay); err != nil {
		return "", fmt.Errorf("wait for search index: %w", err)
	}

	candidates, _, err := p.finder.FindMatchingPosts(ctx, query, p.maxCandidates)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", errors.New(errors.TypeProvider, fmt.Sprintf("resolve parent for %q", query), ErrParentNotFound)
	}
	return candidates[0].ID, nil
}

// PublishOrReply publishes text, as a reply to parentID when isReply is
// set. No search is made.
func (p *TwitterPoster) PublishOrReply(ctx context.Context, text string, isReply bool, parentID string) (*PostResult, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if isReply && parentID == "" {
		return nil, errors.Usage("a reply needs a parent post id")
	}
	if !isReply {
		parentID = ""
	}

	result := &PostResult{}
	session, err := p.session(ctx)
	if err != nil {
		return p.abort("publish or reply", result, err)
	}
	if err := p.create(ctx, session, result, text, parentID, nil); err != nil {
		return p.abort("publish or reply", result, err)
	}
	return result, nil
}

// PublishOrReplyWithImage is PublishOrReply with one image attached.
func (p *TwitterPoster) PublishOrReplyWithImage(ctx context.Context, text, imagePath string, isReply bool, parentID string) (*PostResult, error) {
	if !p.imagesEnabled {
		return nil, errors.Configuration("image publishing is disabled")
	}
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if isReply && parentID == "" {
		return nil, errors.Usage("a reply needs a parent post id")
	}
	if !isReply {
		parentID = ""
	}
	return p.publishWithImage(ctx, text, imagePath, parentID)
}

func (p *TwitterPoster) publishWithImage(ctx context.Context, text, imagePath, parentID string) (*PostResult, error) {
	const op = "publish with image"
	if imagePath == "" {
		return nil, errors.Usage("image path is empty")
	}

	result := &PostResult{}
	uploader, err := p.uploader(ctx)
	if err != nil {
		return p.abort(op, result, err)
	}
	media, err := uploader.UploadMedia(ctx, imagePath)
	if err != nil {
		return p.abort(op, result, errors.Wrap(err, errors.TypeProvider, "upload media"))
	}

	session, err := p.session(ctx)
	if err != nil {
		return p.abort(op, result, err)
	}
	if err := p.create(ctx, session, result, text, parentID, []string{media.MediaID}); err != nil {
		return p.abort(op, result, err)
	}
	return result, nil
}

func (p *TwitterPoster) session(ctx context.Context) (*twitter.Session, error) {
	session, err := p.sessions.NewSession(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeCredential, "create session")
	}
	return session, nil
}

func (p *TwitterPoster) uploader(ctx context.Context) (*twitter.Uploader, error) {
	uploader, err := p.sessions.NewUploader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeCredential, "create media uploader")
	}
	return uploader, nil
}

// create publishes one post and records it in result.
func (p *TwitterPoster) create(ctx context.Context, session *twitter.Session, result *PostResult, text, parentID string, mediaIDs []string) error {
	req := twitter.CreateTweetRequest{Text: text}
	if parentID != "" {
		req.Reply = &twitter.TweetReply{InReplyToTweetID: parentID}
	}
	if len(mediaIDs) > 0 {
		req.Media = &twitter.TweetMedia{MediaIDs: mediaIDs}
	}

	tweet, err := session.CreateTweet(ctx, req)
	if err != nil {
		return errors.Wrap(err, errors.TypeProvider, "create post")
	}

	post := PublishedPost{
		ID:       tweet.ID,
		Text:     text,
		ParentID: parentID,
		MediaIDs: mediaIDs,
		URL:      finder.Permalink(p.siteHost, session.Username, tweet.ID),
	}
	result.add(post)

	slog.Info("published post",
		"tweet_id", post.ID,
		"parent_id", post.ParentID,
		"media_count", len(mediaIDs),
	)
	return nil
}

// abort logs the failure that ended op and returns it with the posts
// created so far.
func (p *TwitterPoster) abort(op string, result *PostResult, err error) (*PostResult, error) {
	slog.Error("publish aborted",
		"operation", op,
		"published", len(result.Posts),
		"error", err,
	)
	return result, err
}
