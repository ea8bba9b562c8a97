// Package migrations embeds the journal schema migrations.
package migrations

import "embed"

// FS holds the *.sql migration files, applied in name order.
//
//go:embed *.sql
var FS embed.FS
