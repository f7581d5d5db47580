// Package appfs embeds the files the binaries need at runtime: templates and migrations.
package appfs

import "embed"

//go:embed all:assets migrations
var FS embed.FS
