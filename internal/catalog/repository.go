package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/nb-core/internal/infrastructure/database"
)

// Repository defines the persistence operations of the catalog.
type Repository interface {
	// List returns the recipes matching every term, ordered by ID.
	// Terms must already be case-folded.
	List(ctx context.Context, terms []string) ([]Recipe, error)

	// Create inserts a recipe and links its ingredients. Ingredients with a
	// zero ID are resolved by exact name, creating them when missing.
	Create(ctx context.Context, recipe *Recipe) error

	GetByName(ctx context.Context, name string) (*Recipe, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
// The database must be opened with the database package's driver, which
// provides the casefold() function the filter relies on.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed catalog repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// matchFilter builds the recipe selection for terms.
//
// The terms become a VALUES table (idx, term). Every (recipe, term) pair with
// a matching ingredient survives the join; a recipe is kept when the number
// of distinct terms it satisfied equals len(terms). GROUP BY also removes the
// duplicates produced by several ingredients matching the same term.
func matchFilter(terms []string) (with, where string, args []any) {
	if len(terms) == 0 {
		return "", "1 = 1", nil
	}

	rows := make([]string, len(terms))
	args = make([]any, 0, len(terms)+1)
	for i, term := range terms {
		rows[i] = "(?, ?)"
		args = append(args, i, term)
	}
	args = append(args, len(terms))

	with = "WITH filters(idx, term) AS (VALUES " + strings.Join(rows, ", ") + ")\n"
	where = `r.id IN (
		SELECT ri.recipe_id
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		JOIN filters f ON instr(casefold(i.name), f.term) > 0
		GROUP BY ri.recipe_id
		HAVING COUNT(DISTINCT f.idx) = ?
	)`
	return with, where, args
}

// List returns the recipes matching every term with their ingredients.
// Both reads run in one read-only transaction so they see the same snapshot.
func (r *SQLiteRepository) List(ctx context.Context, terms []string) ([]Recipe, error) {
	with, where, args := matchFilter(terms)

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("starting read: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	recipes, index, err := r.selectRecipes(ctx, tx, with+
		"SELECT r.id, r.name, r.description, r.instructions FROM recipes r WHERE "+where+" ORDER BY r.id", args)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return recipes, nil
	}

	rows, err := tx.QueryContext(ctx, with+`
		SELECT ri.recipe_id, i.id, i.name
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (SELECT r.id FROM recipes r WHERE `+where+`)
		ORDER BY ri.recipe_id, i.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recipe ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID int64
			ing      Ingredient
		)
		if err := rows.Scan(&recipeID, &ing.ID, &ing.Name); err != nil {
			return nil, fmt.Errorf("scanning recipe ingredient: %w", err)
		}
		if pos, ok := index[recipeID]; ok {
			recipes[pos].Ingredients = append(recipes[pos].Ingredients, ing)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipe ingredients: %w", err)
	}

	return recipes, nil
}

func (r *SQLiteRepository) selectRecipes(ctx context.Context, tx *sql.Tx, query string, args []any) ([]Recipe, map[int64]int, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := []Recipe{}
	index := make(map[int64]int)
	for rows.Next() {
		var rec Recipe
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Instructions); err != nil {
			return nil, nil, fmt.Errorf("scanning recipe: %w", err)
		}
		rec.Ingredients = []Ingredient{}
		index[rec.ID] = len(recipes)
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating recipes: %w", err)
	}
	return recipes, index, nil
}

// Create inserts recipe and its ingredient links in one transaction.
// recipe.ID and the IDs of resolved ingredients are set on success.
func (r *SQLiteRepository) Create(ctx context.Context, recipe *Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipes (name, description, instructions) VALUES (?, ?, ?)",
		recipe.Name, recipe.Description, recipe.Instructions,
	)
	if err != nil {
		return fmt.Errorf("creating recipe: %w", err)
	}
	recipeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading recipe id: %w", err)
	}

	linked := make([]Ingredient, 0, len(recipe.Ingredients))
	seen := make(map[int64]bool, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		if ing.ID == 0 {
			if ing.ID, err = ensureIngredient(ctx, tx, ing.Name); err != nil {
				return err
			}
		}
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id) VALUES (?, ?)",
			recipeID, ing.ID,
		); err != nil {
			return fmt.Errorf("linking ingredient %d: %w", ing.ID, err)
		}
		linked = append(linked, ing)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe: %w", err)
	}

	recipe.ID = recipeID
	recipe.Ingredients = linked
	return nil
}

// ensureIngredient returns the lowest ID of an ingredient called name,
// inserting one when none exists.
func ensureIngredient(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM ingredients WHERE name = ? ORDER BY id LIMIT 1", name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up ingredient %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO ingredients (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("creating ingredient %q: %w", name, err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("reading ingredient id: %w", err)
	}
	return id, nil
}

// GetByName returns the first recipe with exactly this name, without its
// ingredients.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Recipe, error) {
	var rec Recipe
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, instructions FROM recipes WHERE name = ? ORDER BY id LIMIT 1", name,
	).Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Instructions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return &rec, nil
}

// Count returns the number of recipes in the catalog.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return count, nil
}

// foldTerms applies the same Unicode folding the casefold() SQL function uses.
func foldTerms(filters []string) []string {
	terms := make([]string, len(filters))
	for i, f := range filters {
		terms[i] = database.Fold(f)
	}
	return terms
}
