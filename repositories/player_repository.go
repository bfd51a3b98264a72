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
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerTeamInvalid = errors.New("player team does not exist")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error)
	// Delete removes playerID only when it belongs to teamID.
	Delete(ctx context.Context, teamID, playerID uuid.UUID) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (team_id, name, number, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.TeamID,
		player.Name,
		player.Number,
		player.Position,
	).Scan(&player.ID, &player.CreatedAt)
	if err != nil {
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrPlayerTeamInvalid
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	query := `
		SELECT id, team_id, name, number, position, created_at
		FROM players
		WHERE team_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players of team %s: %w", teamID, err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.Number, &p.Position, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, teamID, playerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1 AND team_id = $2`, playerID, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", playerID, err)
	}
	return checkAffectedRows(res, ErrPlayerNotFound)
}
