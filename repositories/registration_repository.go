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
	ErrRegistrationConflict    = errors.New("team already registered for this tournament")
	ErrRegistrationTeamInvalid = errors.New("registration team or tournament does not exist")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	Exists(ctx context.Context, exec SQLExecutor, tournamentID, teamID uuid.UUID) (bool, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	query := `
		INSERT INTO tournament_registrations (tournament_id, team_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query, reg.TournamentID, reg.TeamID).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, pqUniqueViolation); ok &&
			constraint == "tournament_registrations_tournament_id_team_id_key" {
			return ErrRegistrationConflict
		}
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrRegistrationTeamInvalid
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) Exists(ctx context.Context, exec SQLExecutor, tournamentID, teamID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tournament_registrations WHERE tournament_id = $1 AND team_id = $2)`
	var exists bool
	if err := executor(r.db, exec).QueryRowContext(ctx, query, tournamentID, teamID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return exists, nil
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	var n int
	err := executor(r.db, exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = $1`, tournamentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return n, nil
}
