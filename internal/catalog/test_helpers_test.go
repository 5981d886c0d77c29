package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nerrad567/nb-core/internal/infrastructure/database"
	_ "github.com/nerrad567/nb-core/migrations"
)

// testDB opens a migrated temporary database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "catalog.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db.DB
}

// mustCreate inserts a recipe whose ingredients are resolved by name.
func mustCreate(t *testing.T, repo *SQLiteRepository, name string, ingredients ...string) *Recipe {
	t.Helper()

	recipe := &Recipe{Name: name, Description: name + " desc", Instructions: "Mescolare."}
	for _, ing := range ingredients {
		recipe.Ingredients = append(recipe.Ingredients, Ingredient{Name: ing})
	}
	if err := repo.Create(context.Background(), recipe); err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return recipe
}

func recipeNames(recipes []Recipe) []string {
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
	}
	return names
}
