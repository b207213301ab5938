package repository

import (
	"context"
	"fmt"
	"strings"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain"
	"devmatch/internal/domain/profile"
	"devmatch/internal/domain/skill"
	"devmatch/internal/domain/user"

	"github.com/google/uuid"
)

const userColumns = `u.id, u.email, u.password_hash, u.full_name, u.bio, u.experience_level,
	u.github_username, u.linkedin_url, u.profile_picture, u.timezone, u.hours_per_week,
	u.auth_provider, u.provider_id, u.is_active, u.onboarded, u.created_at, u.updated_at`

type PostgresUserRepository struct {
	db database.DB
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u user.User) error {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, full_name, bio, experience_level,
				github_username, linkedin_url, profile_picture, timezone, hours_per_week,
				auth_provider, provider_id, is_active, onboarded, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			u.ID, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.FullName, u.Bio,
			nullString(string(u.Experience)), nullString(u.GitHubUsername), nullString(u.LinkedInURL),
			nullString(u.ProfilePicture), nullString(u.Timezone), u.HoursPerWeek,
			u.AuthProvider, nullString(u.ProviderID), u.Active, u.Onboarded, u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return fmt.Errorf("%w: email already registered", domain.ErrConflict)
			}
			return err
		}
		if err := replaceInterests(ctx, tx, u.ID, u.Interests); err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(u.Skills))
		for _, s := range u.Skills {
			ids = append(ids, s.ID)
		}
		_, err = insertSkills(ctx, tx, u.ID, ids)
		return err
	})
	return mapError(err)
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresUserRepository) GetUserByProvider(ctx context.Context, provider, providerID string) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.auth_provider = $1 AND u.provider_id = $2`,
		provider, providerID)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		strings.ToLower(strings.TrimSpace(email)))
	if err := row.Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *PostgresUserRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_active)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd user.ProfileUpdate) error {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.FullName != nil {
		set("full_name", strings.TrimSpace(*upd.FullName))
	}
	if upd.Bio != nil {
		set("bio", strings.TrimSpace(*upd.Bio))
	}
	if upd.Experience != nil {
		set("experience_level", nullString(string(*upd.Experience)))
	}
	if upd.GitHubUsername != nil {
		set("github_username", nullString(*upd.GitHubUsername))
	}
	if upd.LinkedInURL != nil {
		set("linkedin_url", nullString(*upd.LinkedInURL))
	}
	if upd.ProfilePicture != nil {
		set("profile_picture", nullString(*upd.ProfilePicture))
	}
	if upd.Timezone != nil {
		set("timezone", nullString(*upd.Timezone))
	}
	if upd.HoursPerWeek != nil {
		set("hours_per_week", *upd.HoursPerWeek)
	}
	if upd.Experience != nil || upd.SkillIDs != nil || upd.Interests != nil {
		sets = append(sets, "onboarded = TRUE")
	}

	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
		if err != nil {
			return err
		}
		if n == 0 {
			return user.ErrNotFound
		}
		if upd.Interests != nil {
			if err := replaceInterests(ctx, tx, id, *upd.Interests); err != nil {
				return err
			}
		}
		if upd.SkillIDs != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM user_skills WHERE user_id = $1`, id); err != nil {
				return err
			}
			if _, err := insertSkills(ctx, tx, id, *upd.SkillIDs); err != nil {
				return err
			}
		}
		return nil
	})
	return mapError(err)
}

func (r *PostgresUserRepository) AddSkills(ctx context.Context, id uuid.UUID, skillIDs []uuid.UUID) (int, error) {
	var added int
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := insertSkills(ctx, tx, id, skillIDs)
		added = n
		return err
	})
	if err != nil {
		return 0, mapError(err)
	}
	return added, nil
}

func (r *PostgresUserRepository) Search(ctx context.Context, f user.DirectoryFilter) ([]user.User, error) {
	limit, offset := clampPage(f.Limit, f.Offset, 20, 100)

	where := []string{"u.is_active"}
	args := make([]any, 0, 4)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(u.full_name ILIKE $%d OR u.bio ILIKE $%d OR COALESCE(u.github_username, '') ILIKE $%d)", n, n, n))
	}
	if ids := profile.UniqueIDs(f.SkillIDs); len(ids) > 0 {
		args = append(args, ids, len(ids))
		where = append(where, fmt.Sprintf(
			"(SELECT COUNT(DISTINCT us.skill_id) FROM user_skills us WHERE us.user_id = u.id AND us.skill_id = ANY($%d)) = $%d",
			len(args)-1, len(args)))
	}
	args = append(args, limit, offset)

	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY u.created_at DESC, u.id ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, mapError(err)
	}
	if err := r.attach(ctx, users); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, args ...any) (user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, mapError(err)
	}
	users := []user.User{u}
	if err := r.attach(ctx, users); err != nil {
		return user.User{}, mapError(err)
	}
	return users[0], nil
}

// attach loads skills and interests for all users with one query each.
func (r *PostgresUserRepository) attach(ctx context.Context, users []user.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	skills, err := loadUserSkills(ctx, r.db, ids)
	if err != nil {
		return err
	}
	interests, err := loadUserInterests(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for i := range users {
		users[i].Skills = skills[users[i].ID]
		if users[i].Skills == nil {
			users[i].Skills = []skill.Skill{}
		}
		users[i].Interests = interests[users[i].ID]
		if users[i].Interests == nil {
			users[i].Interests = []string{}
		}
	}
	return nil
}

func scanUser(row database.Row) (user.User, error) {
	var (
		u                                        user.User
		exp, github, linkedin, picture, tz, prov *string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Bio, &exp,
		&github, &linkedin, &picture, &tz, &u.HoursPerWeek,
		&u.AuthProvider, &prov, &u.Active, &u.Onboarded, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	u.Experience = profile.ExperienceLevel(derefString(exp))
	u.GitHubUsername = derefString(github)
	u.LinkedInURL = derefString(linkedin)
	u.ProfilePicture = derefString(picture)
	u.Timezone = derefString(tz)
	u.ProviderID = derefString(prov)
	return u, nil
}

func scanUsers(rows database.Rows) ([]user.User, error) {
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadUserSkills(ctx context.Context, q database.Querier, userIDs []uuid.UUID) (map[uuid.UUID][]skill.Skill, error) {
	rows, err := q.Query(ctx,
		`SELECT us.user_id, s.id, s.name, s.category, s.created_at
		 FROM user_skills us
		 JOIN skills s ON s.id = us.skill_id
		 WHERE us.user_id = ANY($1)
		 ORDER BY s.name ASC`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]skill.Skill, len(userIDs))
	for rows.Next() {
		var (
			userID uuid.UUID
			s      skill.Skill
		)
		if err := rows.Scan(&userID, &s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[userID] = append(out[userID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadUserInterests(ctx context.Context, q database.Querier, userIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	rows, err := q.Query(ctx,
		`SELECT user_id, interest FROM user_interests WHERE user_id = ANY($1) ORDER BY interest ASC`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]string, len(userIDs))
	for rows.Next() {
		var (
			userID   uuid.UUID
			interest string
		)
		if err := rows.Scan(&userID, &interest); err != nil {
			return nil, err
		}
		out[userID] = append(out[userID], interest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func replaceInterests(ctx context.Context, q database.Querier, userID uuid.UUID, interests []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_interests WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, in := range profile.NormalizeInterests(interests) {
		if _, err := q.Exec(ctx,
			`INSERT INTO user_interests (user_id, interest) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, in,
		); err != nil {
			return err
		}
	}
	return nil
}

// insertSkills links skills to a user and returns how many links were new.
func insertSkills(ctx context.Context, q database.Querier, userID uuid.UUID, skillIDs []uuid.UUID) (int, error) {
	added := 0
	for _, id := range profile.UniqueIDs(skillIDs) {
		n, err := q.Exec(ctx,
			`INSERT INTO user_skills (user_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, id,
		)
		if err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return added, fmt.Errorf("%w: unknown skill %s", domain.ErrInvalidArgument, id)
			}
			return added, err
		}
		added += int(n)
	}
	return added, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
