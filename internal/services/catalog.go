package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/utils"
)

// Meal is one suggested dish in the static catalog.
type Meal struct {
	Name     string `yaml:"name" json:"name"`
	Img      string `yaml:"img" json:"img"`
	Calories int    `yaml:"calories" json:"calories"`
	Time     string `yaml:"time" json:"time"`
}

// MealCategory groups meals under a tab label (Breakfast, Lunch, Dinner).
type MealCategory struct {
	Name  string `yaml:"name" json:"name"`
	Meals []Meal `yaml:"meals" json:"meals"`
}

type mealCatalogFile struct {
	Categories []MealCategory `yaml:"categories"`
}

// CatalogService serves the meal suggestion catalog. The catalog is
// read once at startup; edits require a restart.
type CatalogService interface {
	Categories() []MealCategory
	Category(name string) (*MealCategory, error)
}

type catalogService struct {
	log        *logger.Logger
	categories []MealCategory
}

func NewCatalogService(log *logger.Logger) (CatalogService, error) {
	serviceLog := log.With("service", "CatalogService")

	path := utils.GetEnv("MEALS_CONFIG_PATH", "configs/meals.yaml", serviceLog)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meal catalog: %w", err)
	}

	var file mealCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse meal catalog: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("meal catalog %q has no categories", path)
	}
	for _, c := range file.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("meal catalog %q has a category without a name", path)
		}
	}

	serviceLog.Info("Loaded meal catalog", "path", path, "categories", len(file.Categories))
	return &catalogService{log: serviceLog, categories: file.Categories}, nil
}

func (cs *catalogService) Categories() []MealCategory {
	return cs.categories
}

func (cs *catalogService) Category(name string) (*MealCategory, error) {
	for i := range cs.categories {
		if strings.EqualFold(cs.categories[i].Name, name) {
			return &cs.categories[i], nil
		}
	}
	return nil, fmt.Errorf("unknown meal category %q", name)
}
