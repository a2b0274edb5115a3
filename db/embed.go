// Package db holds the database schema.
package db

import "embed"

// Migrations are the goose SQL migrations, rooted at "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
