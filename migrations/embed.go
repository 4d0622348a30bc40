// Package migrations embeds the SQL schema migrations so the server and
// cmd/migrate can apply them without a checkout of this directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
