package database

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// DriverName is the database/sql driver registered by this package.
// It is go-sqlite3 with the casefold() function available on every connection.
const DriverName = "sqlite3_nb"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", Fold, true)
		},
	})
}

// Fold returns the Unicode case-folded form of s.
//
// SQLite's own LIKE and lower() only fold ASCII, so "CAFFÈ" and "caffè"
// would not match. Go-side terms and the SQL casefold() function both use
// Fold, which keeps the two sides of every comparison consistent.
func Fold(s string) string {
	// A Caser holds state and is not safe for concurrent use.
	return cases.Fold().String(s)
}
