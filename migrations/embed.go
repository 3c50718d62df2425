// Package migrations embeds the SQL migration files that lay out a new
// glossary store.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
