package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string) string
		input    string
		expected string
	}{
		{"match key cuts at newline", MatchKey, "Hello world\nmore", "Hello world"},
		{"match key without newline", MatchKey, "Hello world", "Hello world"},
		{"match key is not trimmed", MatchKey, " Hello \nmore", " Hello "},
		{"match key empty text", MatchKey, "", ""},
		{"image key cuts at link", ImageMatchKey, "Caption https://t.co/xyz", "Caption"},
		{"image key without link", ImageMatchKey, "  Caption  ", "Caption"},
		{"image key link first", ImageMatchKey, "https://t.co/xyz", ""},
		{"query key cuts at hyphen", QueryKey, "Hello world - extra", "Hello world"},
		{"query key without hyphen", QueryKey, " Hello world ", "Hello world"},
		{"query key first hyphen only", QueryKey, "Day 3 - part - two", "Day 3"},
		{"query key with search operator", QueryKey, "Caption -is:retweet", "Caption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fn(tt.input))
		})
	}
}

func TestPlain_Match(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		query    string
		expected bool
	}{
		{"leading line equals query key", "Hello world\nmore", "Hello world - extra", true},
		{"different text", "Hello there", "Goodbye - extra", false},
		{"image caption does not match", "Caption https://t.co/xyz", "Caption - x", false},
		{"single line exact", "Daily log", "Daily log", true},
		{"prefix only", "Daily log and more", "Daily log - x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Plain{}.Match(tt.text, tt.query))
		})
	}
}

func TestImageAware_Match(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		query    string
		expected bool
	}{
		{"caption before link", "Caption https://t.co/xyz", "Caption - x", true},
		{"plain branch still matches", "Hello world\nmore", "Hello world - extra", true},
		{"different caption", "Other https://t.co/xyz", "Caption - x", false},
		{"different text", "Hello there", "Goodbye - extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ImageAware{}.Match(tt.text, tt.query))
		})
	}
}

func TestForImages(t *testing.T) {
	assert.Equal(t, "plain", ForImages(false).Name())
	assert.Equal(t, "image-aware", ForImages(true).Name())
}
