// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds the *.sql migration files
//
//go:embed *.sql
var FS embed.FS
