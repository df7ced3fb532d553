// Package migrations holds the goose SQL migrations of the notification and moderation services.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
