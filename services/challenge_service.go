package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/matchkid/datewheel"
	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/repositories"
)

// unknownTeamName is shown in the inbox when a team has been deleted.
const unknownTeamName = "Unknown"

type ChallengeService interface {
	Create(ctx context.Context, session Session, input CreateChallengeInput) (*models.Challenge, error)
	Accept(ctx context.Context, session Session, id uuid.UUID) (*models.Challenge, *models.Match, error)
	Decline(ctx context.Context, session Session, id uuid.UUID) (*models.Challenge, error)
	CounterPropose(ctx context.Context, session Session, id uuid.UUID, input CounterProposalInput) (*models.Challenge, error)
	Inbox(ctx context.Context, session Session) (*models.Inbox, error)
	Get(ctx context.Context, session Session, id uuid.UUID) (*models.Challenge, error)
	// RepairAcceptedWithoutMatch creates the missing match of every accepted
	// challenge that has none and returns how many were repaired.
	RepairAcceptedWithoutMatch(ctx context.Context) (int, error)
}

type CreateChallengeInput struct {
	ToTeamID uuid.UUID `json:"to_team_id" swaggertype:"string" format:"uuid"`
	// FromTeamID is optional; when absent the acting team is picked by eligibility.
	FromTeamID              *uuid.UUID          `json:"from_team_id,omitempty" swaggertype:"string" format:"uuid"`
	Date                    datewheel.LocalTime `json:"date" swaggertype:"string" example:"2025-06-14T10:30"`
	Location                string              `json:"location"`
	Message                 string              `json:"message"`
	ConfirmCategoryMismatch bool                `json:"confirm_category_mismatch"`
}

type CounterProposalInput struct {
	Date     datewheel.LocalTime `json:"date" swaggertype:"string" example:"2025-06-21T15:00"`
	Location string              `json:"location"`
	Message  string              `json:"message"`
}

type challengeService struct {
	tx            repositories.TxRunner
	challengeRepo repositories.ChallengeRepository
	matchRepo     repositories.MatchRepository
	teamRepo      repositories.TeamRepository
	logger        zerolog.Logger
}

func NewChallengeService(
	tx repositories.TxRunner,
	challengeRepo repositories.ChallengeRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	logger zerolog.Logger,
) ChallengeService {
	return &challengeService{
		tx:            tx,
		challengeRepo: challengeRepo,
		matchRepo:     matchRepo,
		teamRepo:      teamRepo,
		logger:        logger,
	}
}

func validateSchedule(date datewheel.LocalTime, location string) error {
	if date.IsZero() {
		return validationError("date is required")
	}
	if strings.TrimSpace(location) == "" {
		return validationError("location is required")
	}
	return nil
}

func (s *challengeService) ownedTeams(ctx context.Context, session Session) ([]models.Team, error) {
	owner := session.UserID
	teams, err := s.teamRepo.List(ctx, models.TeamFilter{OwnerID: &owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %s: %w", owner, err)
	}
	return teams, nil
}

func (s *challengeService) Create(ctx context.Context, session Session, input CreateChallengeInput) (*models.Challenge, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	if input.ToTeamID == uuid.Nil {
		return nil, validationError("to_team_id is required")
	}
	if err := validateSchedule(input.Date, input.Location); err != nil {
		return nil, err
	}

	opponent, err := s.teamRepo.GetByID(ctx, input.ToTeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", input.ToTeamID, err)
	}
	mine, err := s.ownedTeams(ctx, session)
	if err != nil {
		return nil, err
	}

	var from models.Team
	if input.FromTeamID != nil {
		found := false
		for _, t := range mine {
			if t.ID == *input.FromTeamID {
				from, found = t, true
				break
			}
		}
		if !found {
			return nil, ErrNotTeamOwner
		}
		if from.Sport != opponent.Sport {
			return nil, ErrSportMismatch
		}
	} else {
		target := EligibilityTarget{Sport: opponent.Sport, Category: opponent.Category, Exclude: opponent.ID}
		from, err = chooseActingTeam(mine, target, input.ConfirmCategoryMismatch)
		if err != nil {
			return nil, err
		}
	}
	if from.ID == opponent.ID {
		return nil, ErrSameTeam
	}

	challenge := &models.Challenge{
		FromTeamID:   from.ID,
		ToTeamID:     opponent.ID,
		Date:         input.Date,
		Location:     strings.TrimSpace(input.Location),
		Message:      strings.TrimSpace(input.Message),
		Status:       models.ChallengePending,
		FromTeamName: from.Name,
		ToTeamName:   opponent.Name,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, mapChallengeRepoError(err)
	}
	return challenge, nil
}

func mapChallengeRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrChallengeNotFound):
		return ErrChallengeNotFound
	case errors.Is(err, repositories.ErrChallengeSameTeam):
		return ErrSameTeam
	case errors.Is(err, repositories.ErrChallengeTeamInvalid):
		return ErrTeamNotFound
	}
	return fmt.Errorf("challenge storage failed: %w", err)
}

// transition locks the challenge, checks that the session owns the receiving team
// and that the challenge is still pending, then hands it to apply inside the same
// transaction.
func (s *challengeService) transition(
	ctx context.Context,
	session Session,
	id uuid.UUID,
	apply func(exec repositories.SQLExecutor, c *models.Challenge) error,
) (*models.Challenge, error) {
	if err := session.require(); err != nil {
		return nil, err
	}

	var result *models.Challenge
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		c, err := s.challengeRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapChallengeRepoError(err)
		}

		recipient, err := s.teamRepo.GetByID(ctx, c.ToTeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to get team %s: %w", c.ToTeamID, err)
		}
		if recipient.OwnerID != session.UserID {
			return ErrNotChallengeRecipient
		}
		if c.Status != models.ChallengePending {
			return fmt.Errorf("%w (status %s)", ErrChallengeNotPending, c.Status)
		}

		if err := apply(exec, c); err != nil {
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.resolveNames(ctx, result)
	return result, nil
}

func matchForChallenge(c *models.Challenge) *models.Match {
	challengeID := c.ID
	return &models.Match{
		ChallengeID: &challengeID,
		TeamAID:     c.FromTeamID,
		TeamBID:     c.ToTeamID,
		Date:        c.Date,
		Location:    c.Location,
		Status:      models.MatchScheduled,
	}
}

func (s *challengeService) Accept(ctx context.Context, session Session, id uuid.UUID) (*models.Challenge, *models.Match, error) {
	var match *models.Match
	c, err := s.transition(ctx, session, id, func(exec repositories.SQLExecutor, c *models.Challenge) error {
		c.Status = models.ChallengeAccepted
		if err := s.challengeRepo.Update(ctx, exec, c); err != nil {
			return mapChallengeRepoError(err)
		}
		m := matchForChallenge(c)
		if err := s.matchRepo.Create(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to create match for challenge %s: %w", c.ID, err)
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	match.TeamAName, match.TeamBName = c.FromTeamName, c.ToTeamName
	s.logger.Info().Str("challenge_id", c.ID.String()).Str("match_id", match.ID.String()).Msg("challenge accepted")
	return c, match, nil
}

func (s *challengeService) Decline(ctx context.Context, session Session, id uuid.UUID) (*models.Challenge, error) {
	return s.transition(ctx, session, id, func(exec repositories.SQLExecutor, c *models.Challenge) error {
		c.Status = models.ChallengeDeclined
		if err := s.challengeRepo.Update(ctx, exec, c); err != nil {
			return mapChallengeRepoError(err)
		}
		return nil
	})
}

func (s *challengeService) CounterPropose(ctx context.Context, session Session, id uuid.UUID, input CounterProposalInput) (*models.Challenge, error) {
	if err := validateSchedule(input.Date, input.Location); err != nil {
		return nil, err
	}
	return s.transition(ctx, session, id, func(exec repositories.SQLExecutor, c *models.Challenge) error {
		c.FromTeamID, c.ToTeamID = c.ToTeamID, c.FromTeamID
		c.Date = input.Date
		c.Location = strings.TrimSpace(input.Location)
		c.Message = models.CounterProposalPrefix + strings.TrimSpace(input.Message)
		c.Status = models.ChallengePending
		if err := s.challengeRepo.Update(ctx, exec, c); err != nil {
			return mapChallengeRepoError(err)
		}
		return nil
	})
}

func (s *challengeService) Inbox(ctx context.Context, session Session) (*models.Inbox, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	mine, err := s.ownedTeams(ctx, session)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(mine))
	for _, t := range mine {
		ids = append(ids, t.ID)
	}

	inbox := &models.Inbox{Received: []models.Challenge{}, Sent: []models.Challenge{}}
	if len(ids) == 0 {
		return inbox, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		received, err := s.challengeRepo.ListByToTeams(gCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to list received challenges: %w", err)
		}
		inbox.Received = received
		return nil
	})
	g.Go(func() error {
		sent, err := s.challengeRepo.ListByFromTeams(gCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to list sent challenges: %w", err)
		}
		inbox.Sent = sent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names, err := s.teamNames(ctx, append(inbox.Received, inbox.Sent...))
	if err != nil {
		return nil, err
	}
	for _, list := range [][]models.Challenge{inbox.Received, inbox.Sent} {
		for i := range list {
			applyChallengeNames(&list[i], names)
		}
	}
	return inbox, nil
}

func (s *challengeService) teamNames(ctx context.Context, challenges []models.Challenge) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(challenges)*2)
	for _, c := range challenges {
		for _, id := range []uuid.UUID{c.FromTeamID, c.ToTeamID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	names, err := s.teamRepo.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team names: %w", err)
	}
	return names, nil
}

func applyChallengeNames(c *models.Challenge, names map[uuid.UUID]string) {
	c.FromTeamName = nameOr(names, c.FromTeamID, unknownTeamName)
	c.ToTeamName = nameOr(names, c.ToTeamID, unknownTeamName)
}

func nameOr(names map[uuid.UUID]string, id uuid.UUID, fallback string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return fallback
}

// resolveNames fills the team names of c. A lookup failure only costs the names.
func (s *challengeService) resolveNames(ctx context.Context, c *models.Challenge) {
	names, err := s.teamNames(ctx, []models.Challenge{*c})
	if err != nil {
		s.logger.Warn().Err(err).Str("challenge_id", c.ID.String()).Msg("could not resolve team names")
		names = map[uuid.UUID]string{}
	}
	applyChallengeNames(c, names)
}

func (s *challengeService) Get(ctx context.Context, session Session, id uuid.UUID) (*models.Challenge, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	c, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapChallengeRepoError(err)
	}

	if !session.IsAdmin() {
		mine, err := s.ownedTeams(ctx, session)
		if err != nil {
			return nil, err
		}
		involved := false
		for _, t := range mine {
			if t.ID == c.FromTeamID || t.ID == c.ToTeamID {
				involved = true
				break
			}
		}
		if !involved {
			return nil, ErrNotChallengeParty
		}
	}

	s.resolveNames(ctx, c)
	return c, nil
}

func (s *challengeService) RepairAcceptedWithoutMatch(ctx context.Context) (int, error) {
	pending, err := s.challengeRepo.ListAcceptedWithoutMatch(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list accepted challenges without match: %w", err)
	}

	repaired := 0
	var errs []error
	for _, candidate := range pending {
		created := false
		err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			c, err := s.challengeRepo.GetByIDForUpdate(ctx, exec, candidate.ID)
			if err != nil {
				return err
			}
			if c.Status != models.ChallengeAccepted {
				return nil
			}
			if err := s.matchRepo.Create(ctx, exec, matchForChallenge(c)); err != nil {
				return err
			}
			created = true
			return nil
		})
		switch {
		case err == nil && created:
			repaired++
			s.logger.Info().Str("challenge_id", candidate.ID.String()).Msg("created missing match for accepted challenge")
		case err == nil,
			errors.Is(err, repositories.ErrMatchChallengeConflict),
			errors.Is(err, repositories.ErrChallengeNotFound):
			// Already repaired by a concurrent run, or gone.
		default:
			s.logger.Error().Err(err).Str("challenge_id", candidate.ID.String()).Msg("failed to repair accepted challenge")
			errs = append(errs, fmt.Errorf("challenge %s: %w", candidate.ID, err))
		}
	}
	return repaired, errors.Join(errs...)
}
