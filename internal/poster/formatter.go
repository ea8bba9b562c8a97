package poster

import (
	"strings"
	"unicode/utf8"

	"github.com/abdulachik/easypost/internal/errors"
)

// TwitterMaxLength is the maximum character count for a Twitter post.
const TwitterMaxLength = 280

// FitsInLimit checks if the text fits within the limit. Characters are
// counted as runes; the platform's weighted count may differ for links
// and wide scripts.
func FitsInLimit(text string, limit int) bool {
	return utf8.RuneCountInString(text) <= limit
}

// ValidateText checks that text can be published as a post.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.Usage("post text is empty")
	}
	if !FitsInLimit(text, TwitterMaxLength) {
		return errors.Usage("post text has %d characters, limit is %d", utf8.RuneCountInString(text), TwitterMaxLength)
	}
	return nil
}

// ChainQuery is the search used to find a chained image reply again by its
// caption. Retweets are excluded.
func ChainQuery(caption string) string {
	return caption + " -is:retweet"
}

// ParseCaptionedImage parses "caption=path". The path is everything after
// the last "=" so captions may contain one.
func ParseCaptionedImage(s string) (CaptionedImage, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 || i == len(s)-1 {
		return CaptionedImage{}, errors.Usage("image %q must be given as caption=path", s)
	}
	return CaptionedImage{
		Caption: strings.TrimSpace(s[:i]),
		Path:    strings.TrimSpace(s[i+1:]),
	}, nil
}
