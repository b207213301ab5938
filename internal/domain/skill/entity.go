package skill

import (
	"fmt"
	"strings"
	"time"

	"devmatch/internal/domain"

	"github.com/google/uuid"
)

var ErrNotFound = fmt.Errorf("skill %w", domain.ErrNotFound)

type Category string

const (
	CategoryFrontend        Category = "FRONTEND"
	CategoryBackend         Category = "BACKEND"
	CategoryMobile          Category = "MOBILE"
	CategoryDatabase        Category = "DATABASE"
	CategoryDevOps          Category = "DEVOPS"
	CategoryDesign          Category = "DESIGN"
	CategoryDataScience     Category = "DATA_SCIENCE"
	CategoryMachineLearning Category = "MACHINE_LEARNING"
	CategoryBlockchain      Category = "BLOCKCHAIN"
	CategoryOther           Category = "OTHER"
)

var categories = []Category{
	CategoryFrontend, CategoryBackend, CategoryMobile, CategoryDatabase, CategoryDevOps,
	CategoryDesign, CategoryDataScience, CategoryMachineLearning, CategoryBlockchain, CategoryOther,
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown skill category %q", domain.ErrInvalidArgument, s)
}

type Skill struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeName is the comparison key for skill names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
