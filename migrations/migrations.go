// Package migrations embeds the SQL schema so the server binary can
// apply it without the files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
