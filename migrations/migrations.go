// Package migrations embarque le schéma SQL versionné, appliqué au démarrage
// via golang-migrate (idempotent).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
