// Package migrations embeds the SQL schema so binaries and tests share one copy.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
