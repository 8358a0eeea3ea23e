package migrations

import "embed"

// FS holds the schema for the SQL document backends.
//
//go:embed *.sql
var FS embed.FS
