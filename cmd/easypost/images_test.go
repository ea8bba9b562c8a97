package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdulachik/easypost/internal/config"
	"github.com/abdulachik/easypost/internal/errors"
	"github.com/abdulachik/easypost/internal/matcher"
)

func TestCheckHeaderQuery(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		header  string
		query   string
		wantErr bool
	}{
		{
			name:   "default query of a plain header",
			mode:   config.SearchModeOwnHistory,
			header: "Daily log\nmore text",
			query:  matcher.MatchKey("Daily log\nmore text"),
		},
		{
			name:   "explicit query with suffix",
			mode:   config.SearchModeOwnHistory,
			header: "Daily log",
			query:  "Daily log - May 1",
		},
		{
			name:    "hyphen in the header line",
			mode:    config.SearchModeOwnHistory,
			header:  "Daily log - May 1",
			query:   matcher.MatchKey("Daily log - May 1"),
			wantErr: true,
		},
		{
			name:    "query naming another thread",
			mode:    config.SearchModeOwnHistory,
			header:  "Daily log",
			query:   "Weekly log",
			wantErr: true,
		},
		{
			name:   "surface mode sends the query as is",
			mode:   config.SearchModeSurface,
			header: "Daily log - May 1",
			query:  "Daily log - May 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkHeaderQuery(tt.mode, tt.header, tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrUsage)
				return
			}
			assert.NoError(t, err)
		})
	}
}
