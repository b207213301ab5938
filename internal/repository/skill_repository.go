package repository

import (
	"context"
	"strings"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain/profile"
	"devmatch/internal/domain/skill"

	"github.com/google/uuid"
)

type SkillRepository interface {
	List(ctx context.Context) ([]skill.Skill, error)
	GetByID(ctx context.Context, id uuid.UUID) (skill.Skill, error)
	Search(ctx context.Context, q string, limit int) ([]skill.Skill, error)
	ListByCategory(ctx context.Context, c skill.Category) ([]skill.Skill, error)
	// FindByNames matches names case-insensitively against the catalog.
	FindByNames(ctx context.Context, names []string) ([]skill.Skill, error)
	// MissingIDs returns the ids that are not in the catalog.
	MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type PostgresSkillRepository struct {
	db database.DB
}

func NewPostgresSkillRepository(db database.DB) *PostgresSkillRepository {
	return &PostgresSkillRepository{db: db}
}

func (r *PostgresSkillRepository) List(ctx context.Context) ([]skill.Skill, error) {
	return r.list(ctx, `SELECT id, name, category, created_at FROM skills ORDER BY name ASC`)
}

func (r *PostgresSkillRepository) GetByID(ctx context.Context, id uuid.UUID) (skill.Skill, error) {
	var s skill.Skill
	row := r.db.QueryRow(ctx, `SELECT id, name, category, created_at FROM skills WHERE id = $1`, id)
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
		if postgres.IsNoRows(err) {
			return skill.Skill{}, skill.ErrNotFound
		}
		return skill.Skill{}, mapError(err)
	}
	return s, nil
}

// Search ranks prefix matches before substring matches.
func (r *PostgresSkillRepository) Search(ctx context.Context, q string, limit int) ([]skill.Skill, error) {
	limit, _ = clampPage(limit, 0, 20, 100)
	q = escapeLike(skill.NormalizeName(q))
	return r.list(ctx,
		`SELECT id, name, category, created_at
		 FROM skills
		 WHERE lower(name) LIKE '%' || $1 || '%'
		 ORDER BY (lower(name) LIKE $1 || '%') DESC, name ASC
		 LIMIT $2`,
		q, limit,
	)
}

func (r *PostgresSkillRepository) ListByCategory(ctx context.Context, c skill.Category) ([]skill.Skill, error) {
	return r.list(ctx,
		`SELECT id, name, category, created_at FROM skills WHERE category = $1 ORDER BY name ASC`,
		string(c),
	)
}

func (r *PostgresSkillRepository) FindByNames(ctx context.Context, names []string) ([]skill.Skill, error) {
	keys := make([]string, 0, len(names))
	for _, n := range names {
		if k := skill.NormalizeName(n); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return []skill.Skill{}, nil
	}
	return r.list(ctx,
		`SELECT id, name, category, created_at FROM skills WHERE lower(name) = ANY($1) ORDER BY name ASC`,
		keys,
	)
}

func (r *PostgresSkillRepository) MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	ids = profile.UniqueIDs(ids)
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT want.id
		 FROM unnest($1::uuid[]) AS want(id)
		 WHERE NOT EXISTS (SELECT 1 FROM skills s WHERE s.id = want.id)`,
		ids,
	)
	if err != nil {
		return nil, mapError(err)
	}
	out, err := scanIDs(rows)
	return out, mapError(err)
}

func (r *PostgresSkillRepository) list(ctx context.Context, query string, args ...any) ([]skill.Skill, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]skill.Skill, 0)
	for rows.Next() {
		var s skill.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		s.Name = strings.TrimSpace(s.Name)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
