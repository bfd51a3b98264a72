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
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchChallengeConflict = errors.New("a match already exists for this challenge")
	ErrMatchTeamInvalid       = errors.New("match team does not exist")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error)
	// ListByTeams returns matches where any of teamIDs plays, ordered by date.
	ListByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id uuid.UUID, score string, status models.MatchStatus) error
	CountByStatus(ctx context.Context, status models.MatchStatus) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, challenge_id, team_a_id, team_b_id, date, location, status, score, created_at`

func scanMatch(row interface{ Scan(...any) error }) (*models.Match, error) {
	m := &models.Match{}
	var challengeID uuid.NullUUID
	err := row.Scan(
		&m.ID,
		&challengeID,
		&m.TeamAID,
		&m.TeamBID,
		&m.Date,
		&m.Location,
		&m.Status,
		&m.Score,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if challengeID.Valid {
		id := challengeID.UUID
		m.ChallengeID = &id
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO matches (challenge_id, team_a_id, team_b_id, date, location, status, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	var challengeID uuid.NullUUID
	if m.ChallengeID != nil {
		challengeID = uuid.NullUUID{UUID: *m.ChallengeID, Valid: true}
	}

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		challengeID,
		m.TeamAID,
		m.TeamBID,
		m.Date,
		m.Location,
		m.Status,
		m.Score,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, pqUniqueViolation); ok && constraint == "matches_challenge_id_key" {
			return ErrMatchChallengeConflict
		}
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrMatchTeamInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	m, err := scanMatch(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]models.Match, error) {
	if len(teamIDs) == 0 {
		return []models.Match{}, nil
	}
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE team_a_id = ANY($1::uuid[]) OR team_b_id = ANY($1::uuid[])
		ORDER BY date ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, uuidArray(teamIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id uuid.UUID, score string, status models.MatchStatus) error {
	res, err := executor(r.db, exec).ExecContext(ctx,
		`UPDATE matches SET score = $1, status = $2 WHERE id = $3`, score, status, id)
	if err != nil {
		return fmt.Errorf("failed to update result of match %s: %w", id, err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}
