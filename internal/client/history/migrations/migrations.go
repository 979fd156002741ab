// Package migrations embeds the client history schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
