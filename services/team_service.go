package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/repositories"
	"github.com/Dosada05/matchkid/storage"
)

type TeamService interface {
	CreateTeam(ctx context.Context, session Session, input CreateTeamInput) (*models.Team, error)
	ListMyTeams(ctx context.Context, session Session) ([]models.Team, error)
	SearchTeams(ctx context.Context, filter models.TeamFilter) ([]models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	AddPlayer(ctx context.Context, session Session, teamID uuid.UUID, input AddPlayerInput) (*models.Player, error)
	RemovePlayer(ctx context.Context, session Session, teamID, playerID uuid.UUID) error
	UploadLogo(ctx context.Context, session Session, teamID uuid.UUID, contentType string, r io.Reader) (*models.Team, error)
}

type CreateTeamInput struct {
	Name     string          `json:"name"`
	Sport    models.Sport    `json:"sport"`
	Category models.Category `json:"category"`
	Level    models.Level    `json:"level"`
	City     string          `json:"city"`
}

type AddPlayerInput struct {
	Name     string          `json:"name"`
	Number   *int            `json:"number"`
	Position models.Position `json:"position"`
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     zerolog.Logger
}

// NewTeamService builds the team service. uploader may be nil when no bucket is
// configured; logo uploads then fail with ErrLogoStorageUnavailable.
func NewTeamService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
	logger zerolog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *teamService) populateLogoURL(team *models.Team) {
	if team == nil || team.LogoKey == nil || *team.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*team.LogoKey); url != "" {
		team.LogoURL = &url
	}
}

func (s *teamService) CreateTeam(ctx context.Context, session Session, input CreateTeamInput) (*models.Team, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, validationError("team name is required")
	case input.Sport == "":
		return nil, validationError("sport is required")
	case input.Category == "":
		return nil, validationError("category is required")
	case input.Level == "":
		return nil, validationError("level is required")
	}

	owned, err := s.ListMyTeams(ctx, session)
	if err != nil {
		return nil, err
	}
	for _, t := range owned {
		if t.Sport == input.Sport && t.Category == input.Category {
			return nil, fmt.Errorf("%w (%s, %s)", ErrTeamDuplicate, input.Sport, input.Category)
		}
	}

	team := &models.Team{
		OwnerID:  session.UserID,
		Name:     name,
		Sport:    input.Sport,
		Category: input.Category,
		Level:    input.Level,
		City:     strings.TrimSpace(input.City),
		Players:  []models.Player{},
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamDuplicate):
			return nil, fmt.Errorf("%w (%s, %s)", ErrTeamDuplicate, input.Sport, input.Category)
		case errors.Is(err, repositories.ErrTeamOwnerNotFound):
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) ListMyTeams(ctx context.Context, session Session) ([]models.Team, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	owner := session.UserID
	teams, err := s.teamRepo.List(ctx, models.TeamFilter{OwnerID: &owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %s: %w", owner, err)
	}
	for i := range teams {
		s.populateLogoURL(&teams[i])
	}
	return teams, nil
}

func (s *teamService) SearchTeams(ctx context.Context, filter models.TeamFilter) ([]models.Team, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	teams, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	for i := range teams {
		s.populateLogoURL(&teams[i])
	}
	return teams, nil
}

func (s *teamService) getTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return team, nil
}

func (s *teamService) getOwnedTeam(ctx context.Context, session Session, id uuid.UUID) (*models.Team, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	team, err := s.getTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != session.UserID {
		return nil, ErrNotTeamOwner
	}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := s.getTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	players, err := s.playerRepo.ListByTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load players of team %s: %w", id, err)
	}
	team.Players = players
	s.populateLogoURL(team)
	return team, nil
}

func (s *teamService) AddPlayer(ctx context.Context, session Session, teamID uuid.UUID, input AddPlayerInput) (*models.Player, error) {
	if _, err := s.getOwnedTeam(ctx, session, teamID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("player name is required")
	}
	if input.Number != nil && *input.Number < 0 {
		return nil, validationError("player number must not be negative")
	}

	player := &models.Player{
		TeamID:   teamID,
		Name:     name,
		Number:   input.Number,
		Position: input.Position,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to add player to team %s: %w", teamID, err)
	}
	return player, nil
}

func (s *teamService) RemovePlayer(ctx context.Context, session Session, teamID, playerID uuid.UUID) error {
	if _, err := s.getOwnedTeam(ctx, session, teamID); err != nil {
		return err
	}
	if err := s.playerRepo.Delete(ctx, teamID, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to remove player %s: %w", playerID, err)
	}
	return nil
}

func (s *teamService) UploadLogo(ctx context.Context, session Session, teamID uuid.UUID, contentType string, r io.Reader) (*models.Team, error) {
	team, err := s.getOwnedTeam(ctx, session, teamID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrLogoStorageUnavailable
	}

	key, err := storage.TeamLogoKey(teamID, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if _, err := s.uploader.Upload(ctx, key, contentType, r); err != nil {
		return nil, fmt.Errorf("failed to upload logo of team %s: %w", teamID, err)
	}
	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to delete orphaned logo")
		}
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to save logo key of team %s: %w", teamID, err)
	}

	if old := team.LogoKey; old != nil && *old != "" && *old != key {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.Warn().Err(err).Str("key", *old).Msg("failed to delete previous logo")
		}
	}
	team.LogoKey = &key
	s.populateLogoURL(team)
	return team, nil
}
