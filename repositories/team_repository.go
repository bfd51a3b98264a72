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
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamDuplicate     = errors.New("team already exists for this owner, sport and category")
	ErrTeamOwnerNotFound = errors.New("team owner does not exist")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	// List returns teams matching filter in storage order (oldest first).
	List(ctx context.Context, filter models.TeamFilter) ([]models.Team, error)
	// NamesByIDs resolves team names. Unknown ids are absent from the result.
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	RecordResult(ctx context.Context, exec SQLExecutor, winnerID, loserID uuid.UUID) error
	UpdateLogoKey(ctx context.Context, id uuid.UUID, logoKey *string) error
	Count(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, owner_id, name, sport, category, level, city, wins, losses, logo_key, created_at`

func scanTeam(row interface{ Scan(...any) error }) (*models.Team, error) {
	t := &models.Team{}
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Name,
		&t.Sport,
		&t.Category,
		&t.Level,
		&t.City,
		&t.Stats.Wins,
		&t.Stats.Losses,
		&t.LogoKey,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (owner_id, name, sport, category, level, city)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, wins, losses, created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.OwnerID,
		team.Name,
		team.Sport,
		team.Category,
		team.Level,
		team.City,
	).Scan(&team.ID, &team.Stats.Wins, &team.Stats.Losses, &team.CreatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, pqUniqueViolation); ok && constraint == "teams_owner_sport_category_key" {
			return ErrTeamDuplicate
		}
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrTeamOwnerNotFound
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	t, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) List(ctx context.Context, filter models.TeamFilter) ([]models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE ($1 = '' OR name ILIKE $2 OR city ILIKE $2)
		  AND ($3 = '' OR sport = $3)
		  AND ($4 = '' OR category = $4)
		  AND ($5::uuid IS NULL OR owner_id = $5)
		ORDER BY created_at ASC, id ASC`

	var owner any
	if filter.OwnerID != nil {
		owner = *filter.OwnerID
	}

	rows, err := r.db.QueryContext(ctx, query,
		filter.Query,
		likePattern(filter.Query),
		string(filter.Sport),
		string(filter.Category),
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM teams WHERE id = ANY($1::uuid[])`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan team name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *postgresTeamRepository) RecordResult(ctx context.Context, exec SQLExecutor, winnerID, loserID uuid.UUID) error {
	ex := executor(r.db, exec)

	res, err := ex.ExecContext(ctx, `UPDATE teams SET wins = wins + 1 WHERE id = $1`, winnerID)
	if err != nil {
		return fmt.Errorf("failed to record win for team %s: %w", winnerID, err)
	}
	if err := checkAffectedRows(res, ErrTeamNotFound); err != nil {
		return err
	}

	res, err = ex.ExecContext(ctx, `UPDATE teams SET losses = losses + 1 WHERE id = $1`, loserID)
	if err != nil {
		return fmt.Errorf("failed to record loss for team %s: %w", loserID, err)
	}
	return checkAffectedRows(res, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id uuid.UUID, logoKey *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update logo key for team %s: %w", id, err)
	}
	return checkAffectedRows(res, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return n, nil
}
