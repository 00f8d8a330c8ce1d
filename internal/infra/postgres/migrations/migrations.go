// Package migrations holds the bun schema migrations. Each file registers
// exactly one migration from its init; bun names it after that file.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
