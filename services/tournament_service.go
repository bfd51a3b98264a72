package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/datewheel"
	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/repositories"
)

type TournamentService interface {
	List(ctx context.Context, filter models.TournamentFilter) ([]models.Tournament, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	Create(ctx context.Context, session Session, input CreateTournamentInput) (*models.Tournament, error)
	RegisterTeam(ctx context.Context, session Session, tournamentID uuid.UUID, input RegisterTeamInput) (*models.Registration, error)
	Close(ctx context.Context, session Session, id uuid.UUID) (*models.Tournament, error)
}

type CreateTournamentInput struct {
	Name     string              `json:"name"`
	Sport    models.Sport        `json:"sport"`
	Category models.Category     `json:"category"`
	Date     datewheel.LocalTime `json:"date" swaggertype:"string" example:"2025-06-14T10:30"`
	Location string              `json:"location"`
	// MaxTeams defaults to models.DefaultMaxTeams when absent.
	MaxTeams *int `json:"max_teams,omitempty"`
}

type RegisterTeamInput struct {
	TeamID                  *uuid.UUID `json:"team_id,omitempty" swaggertype:"string" format:"uuid"`
	ConfirmCategoryMismatch bool       `json:"confirm_category_mismatch"`
}

type tournamentService struct {
	tx               repositories.TxRunner
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	teamRepo         repositories.TeamRepository
	logger           zerolog.Logger
}

func NewTournamentService(
	tx repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	logger zerolog.Logger,
) TournamentService {
	return &tournamentService{
		tx:               tx,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		teamRepo:         teamRepo,
		logger:           logger,
	}
}

func (s *tournamentService) List(ctx context.Context, filter models.TournamentFilter) ([]models.Tournament, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) Get(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) Create(ctx context.Context, session Session, input CreateTournamentInput) (*models.Tournament, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, validationError("tournament name is required")
	case input.Sport == "":
		return nil, validationError("sport is required")
	case input.Category == "":
		return nil, validationError("category is required")
	}
	if err := validateSchedule(input.Date, input.Location); err != nil {
		return nil, err
	}
	maxTeams := models.DefaultMaxTeams
	if input.MaxTeams != nil {
		maxTeams = *input.MaxTeams
	}
	if maxTeams <= 0 {
		return nil, ErrInvalidCapacity
	}

	t := &models.Tournament{
		OwnerID:         session.UserID,
		Name:            name,
		Sport:           input.Sport,
		Category:        input.Category,
		Date:            input.Date,
		Location:        strings.TrimSpace(input.Location),
		MaxTeams:        maxTeams,
		Status:          models.TournamentOpen,
		TeamsRegistered: []uuid.UUID{},
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentInvalidOwner):
			return nil, ErrUnauthenticated
		case errors.Is(err, repositories.ErrTournamentInvalidData):
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

// RegisterTeam adds one of the session's teams to an open tournament. The
// status, duplicate and capacity checks run under a lock on the tournament row.
func (s *tournamentService) RegisterTeam(ctx context.Context, session Session, tournamentID uuid.UUID, input RegisterTeamInput) (*models.Registration, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	owner := session.UserID
	mine, err := s.teamRepo.List(ctx, models.TeamFilter{OwnerID: &owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %s: %w", owner, err)
	}

	var team models.Team
	if input.TeamID != nil {
		found := false
		for _, candidate := range mine {
			if candidate.ID == *input.TeamID {
				team, found = candidate, true
				break
			}
		}
		if !found {
			return nil, ErrNotTeamOwner
		}
		if team.Sport != t.Sport {
			return nil, ErrSportMismatch
		}
	} else {
		team, err = chooseActingTeam(mine, EligibilityTarget{Sport: t.Sport, Category: t.Category}, input.ConfirmCategoryMismatch)
		if err != nil {
			return nil, err
		}
	}

	reg := &models.Registration{TournamentID: tournamentID, TeamID: team.ID}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if locked.Status != models.TournamentOpen {
			return ErrTournamentClosed
		}

		exists, err := s.registrationRepo.Exists(ctx, exec, tournamentID, team.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}
		count, err := s.registrationRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if count >= locked.MaxTeams {
			return fmt.Errorf("%w (%d/%d)", ErrTournamentFull, count, locked.MaxTeams)
		}

		if err := s.registrationRepo.Create(ctx, exec, reg); err != nil {
			switch {
			case errors.Is(err, repositories.ErrRegistrationConflict):
				return ErrAlreadyRegistered
			case errors.Is(err, repositories.ErrRegistrationTeamInvalid):
				return ErrTeamNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("tournament_id", tournamentID.String()).
		Str("team_id", team.ID.String()).
		Msg("team registered")
	return reg, nil
}

func (s *tournamentService) Close(ctx context.Context, session Session, id uuid.UUID) (*models.Tournament, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != session.UserID && !session.IsAdmin() {
		return nil, ErrNotTournamentOwner
	}
	if t.Status == models.TournamentClosed {
		return t, nil
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, models.TournamentClosed); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to close tournament %s: %w", id, err)
	}
	t.Status = models.TournamentClosed
	return t, nil
}
