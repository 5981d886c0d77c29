// Package catalog implements the recipe catalog: ingredient-filtered recipe
// queries and the YAML seed import that populates the store.
//
// A query takes zero or more filter terms. A recipe matches when, for every
// term, at least one of its ingredients contains the term as a
// case-insensitive substring. Matching uses Unicode case folding on both
// sides, so "pomo" finds "Pomodoro" and "caffè" finds "CAFFÈ".
//
// Recipes and ingredients are never created over HTTP; the seed import
// (nbcore seed) is the only writer.
package catalog
