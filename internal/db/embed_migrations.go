package db

import "embed"

// MigrationFS embeds the SQL migrations for the users schema.
// Used by db/migrate (cmd/migrate and MIGRATE_ON_START in cmd/server).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
