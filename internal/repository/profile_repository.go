package repository

import (
	"context"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain/profile"
	"devmatch/internal/domain/user"

	"github.com/google/uuid"
)

// ProfileRepository is the read-only view of users the matching engine works on.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (profile.Profile, error)
	ListProfiles(ctx context.Context, limit int) ([]profile.Profile, error)
}

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (profile.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, experience_level, hours_per_week, timezone
		 FROM users
		 WHERE id = $1 AND is_active`,
		id,
	)
	p, err := scanProfile(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return profile.Profile{}, user.ErrNotFound
		}
		return profile.Profile{}, mapError(err)
	}
	out := []profile.Profile{p}
	if err := r.attach(ctx, out); err != nil {
		return profile.Profile{}, mapError(err)
	}
	return out[0], nil
}

// ListProfiles returns active profiles, oldest accounts first. limit <= 0 means
// no limit.
func (r *PostgresProfileRepository) ListProfiles(ctx context.Context, limit int) ([]profile.Profile, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, experience_level, hours_per_week, timezone
		 FROM users
		 WHERE is_active
		 ORDER BY created_at ASC, id ASC
		 LIMIT $1`,
		lim,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]profile.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	if err := r.attach(ctx, out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *PostgresProfileRepository) attach(ctx context.Context, profiles []profile.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}

	rows, err := r.db.Query(ctx, `SELECT user_id, skill_id FROM user_skills WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	skills := make(map[uuid.UUID][]uuid.UUID, len(ids))
	for rows.Next() {
		var userID, skillID uuid.UUID
		if err := rows.Scan(&userID, &skillID); err != nil {
			rows.Close()
			return err
		}
		skills[userID] = append(skills[userID], skillID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	interests, err := loadUserInterests(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for i := range profiles {
		profiles[i].Skills = profile.UniqueIDs(skills[profiles[i].ID])
		profiles[i].Interests = profile.NormalizeInterests(interests[profiles[i].ID])
	}
	return nil
}

func scanProfile(row database.Row) (profile.Profile, error) {
	var (
		p       profile.Profile
		exp, tz *string
	)
	if err := row.Scan(&p.ID, &exp, &p.HoursPerWeek, &tz); err != nil {
		return profile.Profile{}, err
	}
	p.Experience = profile.ExperienceLevel(derefString(exp))
	p.Timezone = derefString(tz)
	return p, nil
}
