// Package launchdb holds all the migrations for the launchpad database
package launchdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the launchpad database
var Migrations = migrate.NewMigrations()
