package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/repositories"
)

// missingTeamName is shown in the match list when a team has been deleted.
const missingTeamName = "?"

type MatchService interface {
	ListMine(ctx context.Context, session Session) ([]models.Match, error)
	RecordScore(ctx context.Context, session Session, id uuid.UUID, scoreA, scoreB string) (*models.Match, error)
}

// ScoreValue is one side of a result as sent by clients: either a JSON string
// ("3") or a JSON integer (3).
type ScoreValue string

func (v *ScoreValue) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = ScoreValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("score must be a string or an integer: %w", err)
		}
		*v = ScoreValue(n.String())
	}
	return nil
}

type ScoreInput struct {
	ScoreA ScoreValue `json:"score_a" swaggertype:"string" example:"3"`
	ScoreB ScoreValue `json:"score_b" swaggertype:"string" example:"1"`
}

type matchService struct {
	tx        repositories.TxRunner
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	logger    zerolog.Logger
}

func NewMatchService(
	tx repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	logger zerolog.Logger,
) MatchService {
	return &matchService{
		tx:        tx,
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		logger:    logger,
	}
}

// ParseScore reads one side of a result: decimal digits only, surrounding
// whitespace ignored. Signs, decimals and exponents are rejected.
func ParseScore(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: both scores are required", ErrInvalidScore)
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidScore, raw)
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, raw)
	}
	return n, nil
}

func (s *matchService) ownedTeamIDs(ctx context.Context, session Session) (map[uuid.UUID]struct{}, []uuid.UUID, error) {
	owner := session.UserID
	teams, err := s.teamRepo.List(ctx, models.TeamFilter{OwnerID: &owner})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list teams of user %s: %w", owner, err)
	}
	set := make(map[uuid.UUID]struct{}, len(teams))
	ids := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		set[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}
	return set, ids, nil
}

func (s *matchService) ListMine(ctx context.Context, session Session) ([]models.Match, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	_, ids, err := s.ownedTeamIDs(ctx, session)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTeams(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if len(matches) == 0 {
		return matches, nil
	}

	teamIDs := make([]uuid.UUID, 0, len(matches)*2)
	for _, m := range matches {
		teamIDs = append(teamIDs, m.TeamAID, m.TeamBID)
	}
	names, err := s.teamRepo.NamesByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team names: %w", err)
	}
	for i := range matches {
		matches[i].TeamAName = nameOr(names, matches[i].TeamAID, missingTeamName)
		matches[i].TeamBName = nameOr(names, matches[i].TeamBID, missingTeamName)
	}
	return matches, nil
}

// RecordScore finishes a scheduled match. A decisive result adds a win to the
// winner and a loss to the loser in the same transaction; a draw changes no counter.
func (s *matchService) RecordScore(ctx context.Context, session Session, id uuid.UUID, scoreA, scoreB string) (*models.Match, error) {
	if err := session.require(); err != nil {
		return nil, err
	}
	a, err := ParseScore(scoreA)
	if err != nil {
		return nil, err
	}
	b, err := ParseScore(scoreB)
	if err != nil {
		return nil, err
	}
	owned, _, err := s.ownedTeamIDs(ctx, session)
	if err != nil {
		return nil, err
	}

	var match *models.Match
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		_, ownsA := owned[m.TeamAID]
		_, ownsB := owned[m.TeamBID]
		if !ownsA && !ownsB {
			return ErrNotMatchParticipant
		}
		if m.Status == models.MatchFinished {
			return ErrMatchAlreadyFinished
		}

		score := fmt.Sprintf("%d-%d", a, b)
		if err := s.matchRepo.UpdateResult(ctx, exec, m.ID, score, models.MatchFinished); err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}

		switch {
		case a > b:
			err = s.teamRepo.RecordResult(ctx, exec, m.TeamAID, m.TeamBID)
		case b > a:
			err = s.teamRepo.RecordResult(ctx, exec, m.TeamBID, m.TeamAID)
		}
		if err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
			return fmt.Errorf("failed to update team stats: %w", err)
		}

		m.Score = &score
		m.Status = models.MatchFinished
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	names, err := s.teamRepo.NamesByIDs(ctx, []uuid.UUID{match.TeamAID, match.TeamBID})
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", match.ID.String()).Msg("could not resolve team names")
		names = map[uuid.UUID]string{}
	}
	match.TeamAName = nameOr(names, match.TeamAID, missingTeamName)
	match.TeamBName = nameOr(names, match.TeamBID, missingTeamName)
	return match, nil
}
