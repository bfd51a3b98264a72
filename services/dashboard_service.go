package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context, session Session) (models.DashboardStats, error)
}

type dashboardService struct {
	userRepo       repositories.UserRepository
	teamRepo       repositories.TeamRepository
	challengeRepo  repositories.ChallengeRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	challengeRepo repositories.ChallengeRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
) DashboardService {
	return &dashboardService{
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		challengeRepo:  challengeRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context, session Session) (models.DashboardStats, error) {
	if err := session.require(); err != nil {
		return models.DashboardStats{}, err
	}
	if !session.IsAdmin() {
		return models.DashboardStats{}, ErrAdminOnly
	}

	var stats models.DashboardStats
	g, gCtx := errgroup.WithContext(ctx)
	count := func(dst *int, name string, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gCtx)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}

	count(&stats.UsersTotal, "users", s.userRepo.Count)
	count(&stats.TeamsTotal, "teams", s.teamRepo.Count)
	count(&stats.PendingChallenges, "pending challenges", func(ctx context.Context) (int, error) {
		return s.challengeRepo.CountByStatus(ctx, models.ChallengePending)
	})
	count(&stats.ScheduledMatches, "scheduled matches", func(ctx context.Context) (int, error) {
		return s.matchRepo.CountByStatus(ctx, models.MatchScheduled)
	})
	count(&stats.FinishedMatches, "finished matches", func(ctx context.Context) (int, error) {
		return s.matchRepo.CountByStatus(ctx, models.MatchFinished)
	})
	count(&stats.OpenTournaments, "open tournaments", func(ctx context.Context) (int, error) {
		return s.tournamentRepo.CountByStatus(ctx, models.TournamentOpen)
	})
	count(&stats.AcceptedWithoutMatch, "accepted challenges without match", s.challengeRepo.CountAcceptedWithoutMatch)

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}
