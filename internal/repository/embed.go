package repository

import "embed"

// migrationsFS contains the versioned SQL schema files embedded at compile
// time.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS
