package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/models"
)

var (
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrChallengeSameTeam    = errors.New("challenge teams must differ")
	ErrChallengeTeamInvalid = errors.New("challenge team does not exist")
)

type ChallengeRepository interface {
	Create(ctx context.Context, c *models.Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	// GetByIDForUpdate locks the row until exec's transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Challenge, error)
	// Update writes teams, date, location, message and status of c.
	Update(ctx context.Context, exec SQLExecutor, c *models.Challenge) error
	ListByToTeams(ctx context.Context, teamIDs []uuid.UUID) ([]models.Challenge, error)
	ListByFromTeams(ctx context.Context, teamIDs []uuid.UUID) ([]models.Challenge, error)
	// ListAcceptedWithoutMatch returns accepted challenges that have no match row.
	ListAcceptedWithoutMatch(ctx context.Context) ([]models.Challenge, error)
	CountByStatus(ctx context.Context, status models.ChallengeStatus) (int, error)
	CountAcceptedWithoutMatch(ctx context.Context) (int, error)
}

type postgresChallengeRepository struct {
	db *sql.DB
}

func NewPostgresChallengeRepository(db *sql.DB) ChallengeRepository {
	return &postgresChallengeRepository{db: db}
}

const challengeColumns = `c.id, c.from_team_id, c.to_team_id, c.date, c.location, c.message, c.status, c.created_at, c.updated_at`

func scanChallenge(row interface{ Scan(...any) error }) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(
		&c.ID,
		&c.FromTeamID,
		&c.ToTeamID,
		&c.Date,
		&c.Location,
		&c.Message,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func mapChallengeWriteError(err error) error {
	if _, ok := constraintViolation(err, pqCheckViolation); ok {
		return ErrChallengeSameTeam
	}
	if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
		return ErrChallengeTeamInvalid
	}
	return err
}

func (r *postgresChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	query := `
		INSERT INTO challenges (from_team_id, to_team_id, date, location, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		c.FromTeamID,
		c.ToTeamID,
		c.Date,
		c.Location,
		c.Message,
		c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if mapped := mapChallengeWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *postgresChallengeRepository) getOne(ctx context.Context, exec SQLExecutor, query string, id uuid.UUID) (*models.Challenge, error) {
	c, err := scanChallenge(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %s: %w", id, err)
	}
	return c, nil
}

func (r *postgresChallengeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	return r.getOne(ctx, nil, `SELECT `+challengeColumns+` FROM challenges c WHERE c.id = $1`, id)
}

func (r *postgresChallengeRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Challenge, error) {
	return r.getOne(ctx, exec, `SELECT `+challengeColumns+` FROM challenges c WHERE c.id = $1 FOR UPDATE`, id)
}

func (r *postgresChallengeRepository) Update(ctx context.Context, exec SQLExecutor, c *models.Challenge) error {
	query := `
		UPDATE challenges
		SET from_team_id = $1, to_team_id = $2, date = $3, location = $4, message = $5, status = $6,
		    updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		c.FromTeamID,
		c.ToTeamID,
		c.Date,
		c.Location,
		c.Message,
		c.Status,
		c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrChallengeNotFound
		}
		if mapped := mapChallengeWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update challenge %s: %w", c.ID, err)
	}
	return nil
}

func (r *postgresChallengeRepository) list(ctx context.Context, query string, args ...any) ([]models.Challenge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]models.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

func (r *postgresChallengeRepository) ListByToTeams(ctx context.Context, teamIDs []uuid.UUID) ([]models.Challenge, error) {
	if len(teamIDs) == 0 {
		return []models.Challenge{}, nil
	}
	return r.list(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges c
		WHERE c.to_team_id = ANY($1::uuid[])
		ORDER BY c.created_at DESC`, uuidArray(teamIDs))
}

func (r *postgresChallengeRepository) ListByFromTeams(ctx context.Context, teamIDs []uuid.UUID) ([]models.Challenge, error) {
	if len(teamIDs) == 0 {
		return []models.Challenge{}, nil
	}
	return r.list(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges c
		WHERE c.from_team_id = ANY($1::uuid[])
		ORDER BY c.created_at DESC`, uuidArray(teamIDs))
}

func (r *postgresChallengeRepository) ListAcceptedWithoutMatch(ctx context.Context) ([]models.Challenge, error) {
	return r.list(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges c
		LEFT JOIN matches m ON m.challenge_id = c.id
		WHERE c.status = $1 AND m.id IS NULL
		ORDER BY c.updated_at ASC`, models.ChallengeAccepted)
}

func (r *postgresChallengeRepository) CountByStatus(ctx context.Context, status models.ChallengeStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenges WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count challenges: %w", err)
	}
	return n, nil
}

func (r *postgresChallengeRepository) CountAcceptedWithoutMatch(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM challenges c
		LEFT JOIN matches m ON m.challenge_id = c.id
		WHERE c.status = $1 AND m.id IS NULL`
	var n int
	if err := r.db.QueryRowContext(ctx, query, models.ChallengeAccepted).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accepted challenges without match: %w", err)
	}
	return n, nil
}
