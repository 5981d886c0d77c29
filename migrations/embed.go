// Package migrations embeds the NB Core schema into the binary.
//
// Importing it for side effects registers the files with the database
// package, so Migrate works without the SQL present on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/nb-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
