package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk format imported by "nbcore seed".
//
//	ricette:
//	  - nome: Pasta al pomodoro
//	    descrizione: Un classico
//	    istruzioni: Cuocere la pasta...
//	    ingredienti: [Pasta, Pomodoro, Basilico]
type SeedFile struct {
	Recipes []SeedRecipe `yaml:"ricette"`
}

// SeedRecipe is one recipe entry of a seed file.
type SeedRecipe struct {
	Name         string   `yaml:"nome"`
	Description  string   `yaml:"descrizione"`
	Instructions string   `yaml:"istruzioni"`
	Ingredients  []string `yaml:"ingredienti"`
}

// SeedResult reports what an import did.
type SeedResult struct {
	Created int
	Skipped int
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	for i, r := range seed.Recipes {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("%w: recipe %d has no nome", ErrInvalidSeed, i+1)
		}
		for _, ing := range r.Ingredients {
			if strings.TrimSpace(ing) == "" {
				return nil, fmt.Errorf("%w: recipe %q has an empty ingredient", ErrInvalidSeed, r.Name)
			}
		}
	}
	return &seed, nil
}

// Seed imports every recipe of seed that is not already in the catalog.
// A recipe is considered present when one with the same name exists, so
// running Seed twice with the same file creates nothing the second time.
func Seed(ctx context.Context, repo Repository, seed *SeedFile) (SeedResult, error) {
	var result SeedResult

	for _, sr := range seed.Recipes {
		_, err := repo.GetByName(ctx, sr.Name)
		switch {
		case err == nil:
			result.Skipped++
			continue
		case !errors.Is(err, ErrRecipeNotFound):
			return result, fmt.Errorf("checking recipe %q: %w", sr.Name, err)
		}

		recipe := &Recipe{
			Name:         sr.Name,
			Description:  sr.Description,
			Instructions: sr.Instructions,
		}
		for _, name := range sr.Ingredients {
			recipe.Ingredients = append(recipe.Ingredients, Ingredient{Name: name})
		}

		if err := repo.Create(ctx, recipe); err != nil {
			return result, fmt.Errorf("creating recipe %q: %w", sr.Name, err)
		}
		result.Created++
	}

	return result, nil
}
