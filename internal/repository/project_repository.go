package repository

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain"
	"devmatch/internal/domain/project"

	"github.com/google/uuid"
)

const projectColumns = `p.id, p.creator_id, p.title, p.description, p.max_team_size,
	p.current_team_size, p.is_open, p.created_at`

type ProjectRepository interface {
	Create(ctx context.Context, p project.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (project.Project, error)
	// Update stores the editable fields and replaces the required skills.
	Update(ctx context.Context, p project.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListOpen(ctx context.Context, limit, offset int) ([]project.Project, error)
	// ListAcceptingMembers returns open projects with room on the team.
	ListAcceptingMembers(ctx context.Context, limit, offset int) ([]project.Project, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]project.Project, error)
	AddMember(ctx context.Context, projectID, userID uuid.UUID, at time.Time) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
}

type PostgresProjectRepository struct {
	db database.DB
}

func NewPostgresProjectRepository(db database.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

func (r *PostgresProjectRepository) Create(ctx context.Context, p project.Project) error {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO projects (id, creator_id, title, description, max_team_size, current_team_size, is_open, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.CreatorID, p.Title, p.Description, p.MaxTeamSize, p.CurrentTeamSize, p.Open, p.CreatedAt,
		)
		if err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: creator", domain.ErrNotFound)
			}
			return err
		}
		return insertProjectSkills(ctx, tx, p.ID, p.RequiredSkills)
	})
	return mapError(err)
}

func (r *PostgresProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (project.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, mapError(err)
	}
	out := []project.Project{p}
	if err := r.attach(ctx, out); err != nil {
		return project.Project{}, mapError(err)
	}
	return out[0], nil
}

func (r *PostgresProjectRepository) Update(ctx context.Context, p project.Project) error {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE projects
			 SET title = $2, description = $3, max_team_size = $4, is_open = $5, updated_at = now()
			 WHERE id = $1 AND ($4::int IS NULL OR current_team_size <= $4::int)`,
			p.ID, p.Title, p.Description, p.MaxTeamSize, p.Open,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: project is gone or its team outgrew maxTeamSize", domain.ErrConflict)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM project_skills WHERE project_id = $1`, p.ID); err != nil {
			return err
		}
		return insertProjectSkills(ctx, tx, p.ID, p.RequiredSkills)
	})
	return mapError(err)
}

func (r *PostgresProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return project.ErrNotFound
	}
	return nil
}

func (r *PostgresProjectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID, at time.Time) error {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			projectID, userID, at.UTC(),
		)
		if err != nil {
			switch {
			case postgres.IsUniqueViolation(err):
				return project.ErrAlreadyMember
			case postgres.IsForeignKeyViolation(err):
				return fmt.Errorf("%w: project or user", domain.ErrNotFound)
			}
			return err
		}
		return growTeam(ctx, tx, projectID)
	})
	return mapError(err)
}

func (r *PostgresProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
			projectID, userID,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return project.ErrNotMember
		}
		_, err = tx.Exec(ctx,
			`UPDATE projects
			 SET current_team_size = GREATEST(current_team_size - 1, 1), updated_at = now()
			 WHERE id = $1`,
			projectID,
		)
		return err
	})
	return mapError(err)
}

func (r *PostgresProjectRepository) ListOpen(ctx context.Context, limit, offset int) ([]project.Project, error) {
	limit, offset = clampPage(limit, offset, 20, 100)
	return r.list(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p
		 WHERE p.is_open
		 ORDER BY p.created_at DESC, p.id ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *PostgresProjectRepository) ListAcceptingMembers(ctx context.Context, limit, offset int) ([]project.Project, error) {
	limit, offset = clampPage(limit, offset, 20, 100)
	return r.list(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p
		 WHERE p.is_open AND (p.max_team_size IS NULL OR p.current_team_size < p.max_team_size)
		 ORDER BY p.created_at DESC, p.id ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *PostgresProjectRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]project.Project, error) {
	return r.list(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p
		 WHERE p.creator_id = $1
		 ORDER BY p.created_at DESC, p.id ASC`,
		creatorID,
	)
}

func (r *PostgresProjectRepository) list(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
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

func (r *PostgresProjectRepository) attach(ctx context.Context, projects []project.Project) error {
	if err := r.attachSkills(ctx, projects); err != nil {
		return err
	}
	return r.attachMembers(ctx, projects)
}

func (r *PostgresProjectRepository) attachSkills(ctx context.Context, projects []project.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	rows, err := r.db.Query(ctx, `SELECT project_id, skill_id FROM project_skills WHERE project_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	skills := make(map[uuid.UUID][]uuid.UUID, len(ids))
	for rows.Next() {
		var projectID, skillID uuid.UUID
		if err := rows.Scan(&projectID, &skillID); err != nil {
			return err
		}
		skills[projectID] = append(skills[projectID], skillID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range projects {
		projects[i].RequiredSkills = skills[projects[i].ID]
		if projects[i].RequiredSkills == nil {
			projects[i].RequiredSkills = []uuid.UUID{}
		}
	}
	return nil
}

func (r *PostgresProjectRepository) attachMembers(ctx context.Context, projects []project.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT project_id, user_id FROM project_members WHERE project_id = ANY($1) ORDER BY joined_at, user_id`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	members := make(map[uuid.UUID][]uuid.UUID, len(ids))
	for rows.Next() {
		var projectID, userID uuid.UUID
		if err := rows.Scan(&projectID, &userID); err != nil {
			return err
		}
		members[projectID] = append(members[projectID], userID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range projects {
		projects[i].MemberIDs = members[projects[i].ID]
		if projects[i].MemberIDs == nil {
			projects[i].MemberIDs = []uuid.UUID{}
		}
	}
	return nil
}

func insertProjectSkills(ctx context.Context, tx database.Tx, projectID uuid.UUID, skillIDs []uuid.UUID) error {
	for _, skillID := range skillIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO project_skills (project_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			projectID, skillID,
		); err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: unknown skill %s", domain.ErrInvalidArgument, skillID)
			}
			return err
		}
	}
	return nil
}

func scanProject(row database.Row) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Description, &p.MaxTeamSize,
		&p.CurrentTeamSize, &p.Open, &p.CreatedAt)
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}
