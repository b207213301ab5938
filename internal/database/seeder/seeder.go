package seeder

import (
	"context"

	"devmatch/internal/database"
)

// Seeder inserts reference or demo data. Implementations must be idempotent.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
