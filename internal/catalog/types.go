package catalog

import (
	"errors"
	"time"
)

// Ingredient is a named ingredient. Names are not unique.
type Ingredient struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// Recipe is a catalog entry with its set of ingredients.
// The JSON field names are the ones the mobile client reads.
type Recipe struct {
	ID           int64        `json:"id"`
	Name         string       `json:"nome"`
	Description  string       `json:"descrizione"`
	Ingredients  []Ingredient `json:"ingredienti"`
	Instructions string       `json:"istruzioni"`
}

// QueryStats describes one completed recipe query.
type QueryStats struct {
	Filters  int
	Results  int
	Duration time.Duration
}

// Domain errors.
var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrInvalidSeed    = errors.New("invalid seed data")
)
