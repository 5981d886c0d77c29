// Package database provides SQLite connectivity for NB Core.
//
// This package manages:
//   - Opening the database with WAL mode and a busy timeout
//   - Registering the sqlite3_nb driver, which adds a casefold() SQL
//     function for Unicode case-insensitive matching
//   - Applying embedded schema migrations
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// each one is applied in its own transaction.
package database
