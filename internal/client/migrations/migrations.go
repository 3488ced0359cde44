// Package migrations embeds the schema of the CLI's local sqlite database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
