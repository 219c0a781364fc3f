package config

import (
	"fmt"
	"os"

	"retail-audit/internal/models"

	"gopkg.in/yaml.v3"
)

type categoriesFile struct {
	Categories []models.Category `yaml:"categories"`
}

// DefaultCategories — чек-лист по умолчанию, если CATEGORIES_FILE не задан
func DefaultCategories() []models.Category {
	return []models.Category{
		{Key: "maniquies", Label: "Maniquíes", Color: "#FDE2E4"},
		{Key: "vitrina", Label: "Vitrina / aparador", Color: "#E2ECE9"},
		{Key: "zona_promocional", Label: "Zona promocional", Color: "#FFF1E6"},
		{Key: "exhibicion", Label: "Exhibición de producto", Color: "#DFE7FD"},
		{Key: "senalizacion", Label: "Señalización y precios", Color: "#F0EFEB"},
	}
}

// LoadCategories читает каталог категорий из YAML
func LoadCategories(path string) ([]models.Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file %s: %w", path, err)
	}

	var file categoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories file %s: %w", path, err)
	}

	if err := validateCategories(file.Categories); err != nil {
		return nil, fmt.Errorf("invalid categories in %s: %w", path, err)
	}

	for i := range file.Categories {
		if file.Categories[i].Label == "" {
			file.Categories[i].Label = file.Categories[i].Key
		}
		if file.Categories[i].Color == "" {
			file.Categories[i].Color = "#F5F5F5"
		}
	}

	return file.Categories, nil
}

func validateCategories(categories []models.Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[string]bool)
	for i, c := range categories {
		if c.Key == "" {
			return fmt.Errorf("category at index %d has empty key", i)
		}
		if !models.ValidCode(c.Key) {
			return fmt.Errorf("category key %q may only contain letters, digits, '_' and '-'", c.Key)
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate category key: %s", c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}
