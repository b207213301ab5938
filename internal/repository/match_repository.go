package repository

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain"
	"devmatch/internal/domain/match"
	"devmatch/internal/domain/project"

	"github.com/google/uuid"
)

const matchColumns = `id, requester_id, recipient_id, project_id, status, message, response_message,
	score, explanation, created_at, responded_at`

type MatchRepository interface {
	Create(ctx context.Context, m match.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (match.Match, error)
	// ListByRecipient returns matches addressed to the user, newest first. A nil
	// status returns every status.
	ListByRecipient(ctx context.Context, userID uuid.UUID, status *match.Status) ([]match.Match, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	// ListForUser returns every match the user takes part in, either side.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	// UpdateStatusIfPending persists a transition already applied to m. It only
	// succeeds while the stored row is still PENDING.
	UpdateStatusIfPending(ctx context.Context, m match.Match) error
	// ExpirePendingBefore moves every PENDING match created before cutoff to
	// EXPIRED and returns the expired rows.
	ExpirePendingBefore(ctx context.Context, cutoff, at time.Time) ([]match.Match, error)
}

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) Create(ctx context.Context, m match.Match) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO matches (`+matchColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.RequesterID, m.RecipientID, m.ProjectID, string(m.Status), m.Message, m.ResponseMessage,
		m.Score, m.Explanation, m.CreatedAt, m.RespondedAt,
	)
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err):
		return fmt.Errorf("%w: a pending match already exists for this pair", domain.ErrConflict)
	case postgres.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: recipient or project", domain.ErrNotFound)
	default:
		return mapError(err)
	}
}

func (r *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (match.Match, error) {
	m, err := scanMatch(r.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return match.Match{}, match.ErrNotFound
		}
		return match.Match{}, mapError(err)
	}
	return m, nil
}

func (r *PostgresMatchRepository) ListByRecipient(ctx context.Context, userID uuid.UUID, status *match.Status) ([]match.Match, error) {
	var st any
	if status != nil {
		st = string(*status)
	}
	return r.list(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE recipient_id = $1 AND ($2::text IS NULL OR status = $2)
		 ORDER BY created_at DESC, id ASC`,
		userID, st,
	)
}

func (r *PostgresMatchRepository) ListByRequester(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	return r.list(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE requester_id = $1
		 ORDER BY created_at DESC, id ASC`,
		userID,
	)
}

func (r *PostgresMatchRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	return r.list(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE requester_id = $1 OR recipient_id = $1
		 ORDER BY created_at DESC, id ASC`,
		userID,
	)
}

func (r *PostgresMatchRepository) UpdateStatusIfPending(ctx context.Context, m match.Match) error {
	if !m.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is not a terminal status", domain.ErrInvalidStateTransition, m.Status)
	}
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE matches
			 SET status = $2, response_message = $3, responded_at = $4
			 WHERE id = $1 AND status = 'PENDING'`,
			m.ID, string(m.Status), m.ResponseMessage, m.RespondedAt,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: match %s is no longer pending", domain.ErrConflict, m.ID)
		}

		if m.Status != match.StatusAccepted || m.ProjectID == nil {
			return nil
		}
		return joinProject(ctx, tx, *m.ProjectID, m.RequesterID, m.RecipientID, *m.RespondedAt)
	})
	return mapError(err)
}

func (r *PostgresMatchRepository) ExpirePendingBefore(ctx context.Context, cutoff, at time.Time) ([]match.Match, error) {
	return r.list(ctx,
		`UPDATE matches
		 SET status = 'EXPIRED', responded_at = $2
		 WHERE status = 'PENDING' AND created_at < $1
		 RETURNING `+matchColumns,
		cutoff.UTC(), at.UTC(),
	)
}

func (r *PostgresMatchRepository) list(ctx context.Context, query string, args ...any) ([]match.Match, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]match.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func scanMatch(row database.Row) (match.Match, error) {
	var (
		m      match.Match
		status string
	)
	err := row.Scan(&m.ID, &m.RequesterID, &m.RecipientID, &m.ProjectID, &status, &m.Message,
		&m.ResponseMessage, &m.Score, &m.Explanation, &m.CreatedAt, &m.RespondedAt)
	if err != nil {
		return match.Match{}, err
	}
	m.Status = match.Status(status)
	return m, nil
}

// joinProject adds the non-creator participant of an accepted match to the
// team. A user already on the team does not count twice.
func joinProject(ctx context.Context, tx database.Tx, projectID, requesterID, recipientID uuid.UUID, at time.Time) error {
	n, err := tx.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id, joined_at)
		 SELECT p.id, CASE WHEN p.creator_id = $2 THEN $3::uuid ELSE $2::uuid END, $4
		 FROM projects p
		 WHERE p.id = $1
		 ON CONFLICT DO NOTHING`,
		projectID, requesterID, recipientID, at.UTC(),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return growTeam(ctx, tx, projectID)
}

func growTeam(ctx context.Context, tx database.Tx, projectID uuid.UUID) error {
	n, err := tx.Exec(ctx,
		`UPDATE projects
		 SET current_team_size = current_team_size + 1, updated_at = now()
		 WHERE id = $1 AND (max_team_size IS NULL OR current_team_size < max_team_size)`,
		projectID,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return project.ErrTeamFull
	}
	return nil
}
