package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Dosada05/matchkid/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentInvalidOwner = errors.New("invalid tournament owner reference")
	ErrTournamentInvalidData  = errors.New("tournament data violates a constraint")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row. TeamsRegistered is not loaded.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter models.TournamentFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error
	CountByStatus(ctx context.Context, status models.TournamentStatus) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentSelect = `
	SELECT t.id, t.owner_id, t.name, t.sport, t.category, t.date, t.location, t.max_teams, t.status, t.created_at,
	       COALESCE(array_agg(r.team_id ORDER BY r.created_at) FILTER (WHERE r.team_id IS NOT NULL), '{}')
	FROM tournaments t
	LEFT JOIN tournament_registrations r ON r.tournament_id = t.id`

func scanTournament(row interface{ Scan(...any) error }, withTeams bool) (*models.Tournament, error) {
	t := &models.Tournament{}
	dest := []any{
		&t.ID,
		&t.OwnerID,
		&t.Name,
		&t.Sport,
		&t.Category,
		&t.Date,
		&t.Location,
		&t.MaxTeams,
		&t.Status,
		&t.CreatedAt,
	}
	var teamIDs pq.StringArray
	if withTeams {
		dest = append(dest, &teamIDs)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	t.TeamsRegistered = []uuid.UUID{}
	if withTeams {
		ids, err := parseUUIDArray(teamIDs)
		if err != nil {
			return nil, err
		}
		t.TeamsRegistered = ids
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (owner_id, name, sport, category, date, location, max_teams, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.OwnerID,
		t.Name,
		t.Sport,
		t.Category,
		t.Date,
		t.Location,
		t.MaxTeams,
		t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrTournamentInvalidOwner
		}
		if _, ok := constraintViolation(err, pqCheckViolation); ok {
			return ErrTournamentInvalidData
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	if t.TeamsRegistered == nil {
		t.TeamsRegistered = []uuid.UUID{}
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := tournamentSelect + ` WHERE t.id = $1 GROUP BY t.id`
	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	query := `
		SELECT id, owner_id, name, sport, category, date, location, max_teams, status, created_at
		FROM tournaments
		WHERE id = $1
		FOR UPDATE`
	t, err := scanTournament(executor(r.db, exec).QueryRowContext(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to lock tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter models.TournamentFilter) ([]models.Tournament, error) {
	query := tournamentSelect + `
		WHERE ($1 = '' OR t.name ILIKE $2 OR t.location ILIKE $2)
		  AND ($3 = '' OR t.sport = $3)
		  AND ($4 = '' OR t.category = $4)
		GROUP BY t.id
		ORDER BY t.date ASC, t.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query,
		filter.Query,
		likePattern(filter.Query),
		string(filter.Sport),
		string(filter.Category),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, *t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	res, err := executor(r.db, exec).ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %s: %w", id, err)
	}
	return checkAffectedRows(res, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) CountByStatus(ctx context.Context, status models.TournamentStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tournaments: %w", err)
	}
	return n, nil
}
