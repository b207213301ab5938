package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain"

	"github.com/google/uuid"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// mapError translates driver errors that carry domain meaning.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || postgres.IsQueryCanceled(err) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

func scanIDs(rows database.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
