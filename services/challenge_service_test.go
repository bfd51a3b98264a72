package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/datewheel"
	"github.com/Dosada05/matchkid/models"
)

var (
	kickoff = datewheel.New(2025, 6, 14, 10, 30)
	replay  = datewheel.New(2025, 6, 21, 15, 0)
)

type duel struct {
	f                  *fixture
	home, away         Session
	homeTeam, awayTeam models.Team
	challenge          *models.Challenge
}

// newDuel registers two coaches with one U11/U13 football team each and sends a
// challenge from home to away.
func newDuel(t *testing.T) *duel {
	t.Helper()
	f := newFixture()
	d := &duel{f: f, home: f.coach(), away: f.coach()}
	d.homeTeam = f.team(d.home, "Les Lions", models.SportFootball, models.CategoryU11U13)
	d.awayTeam = f.team(d.away, "Les Aigles", models.SportFootball, models.CategoryU11U13)

	c, err := f.challenges.Create(context.Background(), d.home, CreateChallengeInput{
		ToTeamID: d.awayTeam.ID,
		Date:     kickoff,
		Location: "Stade Gerland",
		Message:  "Match amical ?",
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	d.challenge = c
	return d
}

func TestCreateChallengeUsesExactCategoryTeam(t *testing.T) {
	f := newFixture()
	coach, rival := f.coach(), f.coach()
	f.team(coach, "Minis", models.SportFootball, models.CategoryU7U9)
	exact := f.team(coach, "Benjamins", models.SportFootball, models.CategoryU11U13)
	opponent := f.team(rival, "Rivaux", models.SportFootball, models.CategoryU11U13)

	c, err := f.challenges.Create(context.Background(), coach, CreateChallengeInput{
		ToTeamID: opponent.ID,
		Date:     kickoff,
		Location: "Parc",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.FromTeamID != exact.ID {
		t.Fatalf("expected team %s, got %s", exact.ID, c.FromTeamID)
	}
	if c.Status != models.ChallengePending {
		t.Fatalf("status = %s", c.Status)
	}
	if c.FromTeamName != "Benjamins" || c.ToTeamName != "Rivaux" {
		t.Fatalf("names = %q/%q", c.FromTeamName, c.ToTeamName)
	}
}

func TestCreateChallengeCategoryFallbackNeedsConfirmation(t *testing.T) {
	f := newFixture()
	coach, rival := f.coach(), f.coach()
	minis := f.team(coach, "Minis", models.SportFootball, models.CategoryU7U9)
	f.team(coach, "Basket", models.SportBasketball, models.CategoryU11U13)
	opponent := f.team(rival, "Rivaux", models.SportFootball, models.CategoryU11U13)

	input := CreateChallengeInput{ToTeamID: opponent.ID, Date: kickoff, Location: "Parc"}
	_, err := f.challenges.Create(context.Background(), coach, input)
	if !errors.Is(err, ErrCategoryConfirmationRequired) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	var mismatch *CategoryMismatchError
	if !errors.As(err, &mismatch) || mismatch.Team.ID != minis.ID {
		t.Fatalf("mismatch should name the fallback team, got %v", err)
	}
	if n := len(f.store.challenges); n != 0 {
		t.Fatalf("no challenge may be stored before confirmation, got %d", n)
	}

	input.ConfirmCategoryMismatch = true
	c, err := f.challenges.Create(context.Background(), coach, input)
	if err != nil {
		t.Fatalf("confirmed Create: %v", err)
	}
	if c.FromTeamID != minis.ID {
		t.Fatalf("expected fallback team, got %s", c.FromTeamID)
	}
}

func TestCreateChallengeWithoutEligibleTeam(t *testing.T) {
	f := newFixture()
	coach, rival := f.coach(), f.coach()
	opponent := f.team(rival, "Rivaux", models.SportFootball, models.CategoryU11U13)
	input := CreateChallengeInput{ToTeamID: opponent.ID, Date: kickoff, Location: "Parc"}

	if _, err := f.challenges.Create(context.Background(), coach, input); !errors.Is(err, ErrNoTeams) {
		t.Fatalf("expected ErrNoTeams, got %v", err)
	}

	f.team(coach, "Basket", models.SportBasketball, models.CategoryU11U13)
	if _, err := f.challenges.Create(context.Background(), coach, input); !errors.Is(err, ErrNoEligibleTeam) {
		t.Fatalf("expected ErrNoEligibleTeam, got %v", err)
	}
}

func TestCreateChallengeValidation(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	cases := map[string]CreateChallengeInput{
		"no opponent": {Date: kickoff, Location: "Parc"},
		"no date":     {ToTeamID: d.awayTeam.ID, Location: "Parc"},
		"no location": {ToTeamID: d.awayTeam.ID, Date: kickoff, Location: "  "},
	}
	for name, input := range cases {
		if _, err := d.f.challenges.Create(ctx, d.home, input); !errors.Is(err, ErrValidationFailed) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	if _, err := d.f.challenges.Create(ctx, Session{}, cases["no opponent"]); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous: expected ErrUnauthenticated, got %v", err)
	}

	unknown := CreateChallengeInput{ToTeamID: uuid.New(), Date: kickoff, Location: "Parc"}
	if _, err := d.f.challenges.Create(ctx, d.home, unknown); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("unknown opponent: expected ErrTeamNotFound, got %v", err)
	}

	self := CreateChallengeInput{ToTeamID: d.homeTeam.ID, FromTeamID: &d.homeTeam.ID, Date: kickoff, Location: "Parc"}
	if _, err := d.f.challenges.Create(ctx, d.home, self); !errors.Is(err, ErrSameTeam) {
		t.Errorf("self challenge: expected ErrSameTeam, got %v", err)
	}

	notMine := CreateChallengeInput{ToTeamID: d.homeTeam.ID, FromTeamID: &d.homeTeam.ID, Date: kickoff, Location: "Parc"}
	if _, err := d.f.challenges.Create(ctx, d.away, notMine); !errors.Is(err, ErrNotTeamOwner) {
		t.Errorf("foreign from team: expected ErrNotTeamOwner, got %v", err)
	}
}

func TestCreateChallengeExplicitTeamMustShareSport(t *testing.T) {
	d := newDuel(t)
	basket := d.f.team(d.home, "Basket", models.SportBasketball, models.CategoryU11U13)

	_, err := d.f.challenges.Create(context.Background(), d.home, CreateChallengeInput{
		ToTeamID:   d.awayTeam.ID,
		FromTeamID: &basket.ID,
		Date:       kickoff,
		Location:   "Parc",
	})
	if !errors.Is(err, ErrSportMismatch) {
		t.Fatalf("expected ErrSportMismatch, got %v", err)
	}
}

func TestAcceptCreatesExactlyOneMatch(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	c, m, err := d.f.challenges.Accept(ctx, d.away, d.challenge.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if c.Status != models.ChallengeAccepted {
		t.Fatalf("status = %s", c.Status)
	}
	if m.ChallengeID == nil || *m.ChallengeID != c.ID {
		t.Fatalf("match not linked to challenge: %+v", m)
	}
	if m.TeamAID != d.homeTeam.ID || m.TeamBID != d.awayTeam.ID {
		t.Fatalf("match teams = %s/%s", m.TeamAID, m.TeamBID)
	}
	if !m.Date.Equal(kickoff) || m.Location != "Stade Gerland" || m.Status != models.MatchScheduled {
		t.Fatalf("match copied wrong fields: %+v", m)
	}
	if m.TeamAName != "Les Lions" || m.TeamBName != "Les Aigles" {
		t.Fatalf("match names = %q/%q", m.TeamAName, m.TeamBName)
	}

	if _, _, err := d.f.challenges.Accept(ctx, d.away, d.challenge.ID); !errors.Is(err, ErrChallengeNotPending) {
		t.Fatalf("second accept: expected ErrChallengeNotPending, got %v", err)
	}
	if n := len(d.f.store.matches); n != 1 {
		t.Fatalf("expected exactly one match, got %d", n)
	}
}

func TestAcceptRollsBackWhenMatchCannotBeCreated(t *testing.T) {
	d := newDuel(t)
	d.f.store.failMatchCreate = errors.New("disk full")

	if _, _, err := d.f.challenges.Accept(context.Background(), d.away, d.challenge.ID); err == nil {
		t.Fatal("expected Accept to fail")
	}
	stored := d.f.store.challenges[d.challenge.ID]
	if stored.Status != models.ChallengePending {
		t.Fatalf("challenge must stay pending after rollback, got %s", stored.Status)
	}
	if len(d.f.store.matches) != 0 {
		t.Fatal("no match may survive a rollback")
	}
}

func TestOnlyRecipientCanAnswer(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()
	stranger := d.f.coach()

	for name, s := range map[string]Session{"sender": d.home, "stranger": stranger} {
		if _, _, err := d.f.challenges.Accept(ctx, s, d.challenge.ID); !errors.Is(err, ErrNotChallengeRecipient) {
			t.Errorf("%s accept: expected ErrNotChallengeRecipient, got %v", name, err)
		}
		if _, err := d.f.challenges.Decline(ctx, s, d.challenge.ID); !errors.Is(err, ErrForbiddenOperation) {
			t.Errorf("%s decline: expected forbidden, got %v", name, err)
		}
		_, err := d.f.challenges.CounterPropose(ctx, s, d.challenge.ID, CounterProposalInput{Date: replay, Location: "Ailleurs"})
		if !errors.Is(err, ErrForbiddenOperation) {
			t.Errorf("%s counter: expected forbidden, got %v", name, err)
		}
	}

	if _, _, err := d.f.challenges.Accept(ctx, d.away, uuid.New()); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("unknown challenge: expected ErrChallengeNotFound, got %v", err)
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	c, err := d.f.challenges.Decline(ctx, d.away, d.challenge.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if c.Status != models.ChallengeDeclined {
		t.Fatalf("status = %s", c.Status)
	}

	if _, _, err := d.f.challenges.Accept(ctx, d.away, c.ID); !errors.Is(err, ErrChallengeNotPending) {
		t.Fatalf("accept after decline: %v", err)
	}
	if _, err := d.f.challenges.Decline(ctx, d.away, c.ID); !errors.Is(err, ErrChallengeNotPending) {
		t.Fatalf("decline twice: %v", err)
	}
	if _, err := d.f.challenges.CounterPropose(ctx, d.away, c.ID, CounterProposalInput{Date: replay, Location: "X"}); !errors.Is(err, ErrChallengeNotPending) {
		t.Fatalf("counter after decline: %v", err)
	}
	if len(d.f.store.matches) != 0 {
		t.Fatal("declined challenge must not create a match")
	}
}

func TestCounterProposalSwapsTeams(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	c, err := d.f.challenges.CounterPropose(ctx, d.away, d.challenge.ID, CounterProposalInput{
		Date:     replay,
		Location: " Gymnase Nord ",
		Message:  "Plutôt samedi suivant",
	})
	if err != nil {
		t.Fatalf("CounterPropose: %v", err)
	}
	if c.ID != d.challenge.ID {
		t.Fatal("counter proposal must update the challenge in place")
	}
	if c.FromTeamID != d.awayTeam.ID || c.ToTeamID != d.homeTeam.ID {
		t.Fatalf("teams not swapped: from %s to %s", c.FromTeamID, c.ToTeamID)
	}
	if c.Status != models.ChallengePending || !c.Date.Equal(replay) || c.Location != "Gymnase Nord" {
		t.Fatalf("unexpected challenge %+v", c)
	}
	if !strings.HasPrefix(c.Message, models.CounterProposalPrefix) || !strings.HasSuffix(c.Message, "Plutôt samedi suivant") {
		t.Fatalf("message = %q", c.Message)
	}

	// The original sender now answers.
	if _, _, err := d.f.challenges.Accept(ctx, d.away, c.ID); !errors.Is(err, ErrNotChallengeRecipient) {
		t.Fatalf("proposer must not accept own counter: %v", err)
	}
	_, m, err := d.f.challenges.Accept(ctx, d.home, c.ID)
	if err != nil {
		t.Fatalf("Accept counter: %v", err)
	}
	if m.TeamAID != d.awayTeam.ID || !m.Date.Equal(replay) {
		t.Fatalf("match follows the counter proposal: %+v", m)
	}
}

func TestCounterProposalValidation(t *testing.T) {
	d := newDuel(t)
	_, err := d.f.challenges.CounterPropose(context.Background(), d.away, d.challenge.ID, CounterProposalInput{Location: "X"})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d.f.store.challenges[d.challenge.ID].FromTeamID != d.homeTeam.ID {
		t.Fatal("invalid counter proposal must not change the challenge")
	}
}

func TestInboxSplitsReceivedAndSent(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	inbox, err := d.f.challenges.Inbox(ctx, d.away)
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox.Received) != 1 || len(inbox.Sent) != 0 {
		t.Fatalf("away inbox = %d received, %d sent", len(inbox.Received), len(inbox.Sent))
	}
	if got := inbox.Received[0]; got.FromTeamName != "Les Lions" || got.ToTeamName != "Les Aigles" {
		t.Fatalf("names = %q/%q", got.FromTeamName, got.ToTeamName)
	}

	inbox, err = d.f.challenges.Inbox(ctx, d.home)
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox.Received) != 0 || len(inbox.Sent) != 1 {
		t.Fatalf("home inbox = %d received, %d sent", len(inbox.Received), len(inbox.Sent))
	}

	empty, err := d.f.challenges.Inbox(ctx, d.f.coach())
	if err != nil || empty.Received == nil || empty.Sent == nil || len(empty.Received)+len(empty.Sent) != 0 {
		t.Fatalf("coach without teams gets empty lists, got %+v, %v", empty, err)
	}
}

func TestInboxFallsBackToUnknownName(t *testing.T) {
	d := newDuel(t)
	d.f.store.teams = d.f.store.teams[1:] // drop the sender's team

	inbox, err := d.f.challenges.Inbox(context.Background(), d.away)
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if got := inbox.Received[0].FromTeamName; got != unknownTeamName {
		t.Fatalf("FromTeamName = %q", got)
	}
}

func TestGetChallengeVisibility(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	for name, s := range map[string]Session{
		"sender":    d.home,
		"recipient": d.away,
		"admin":     {UserID: uuid.New(), Role: models.RoleAdmin},
	} {
		if _, err := d.f.challenges.Get(ctx, s, d.challenge.ID); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := d.f.challenges.Get(ctx, d.f.coach(), d.challenge.ID); !errors.Is(err, ErrNotChallengeParty) {
		t.Errorf("stranger: expected ErrNotChallengeParty, got %v", err)
	}
}

func TestRepairCreatesMissingMatchesOnce(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	// Simulate an accepted challenge whose match insert was lost.
	c := d.f.store.challenges[d.challenge.ID]
	c.Status = models.ChallengeAccepted
	d.f.store.challenges[c.ID] = c

	n, err := d.f.challenges.RepairAcceptedWithoutMatch(ctx)
	if err != nil || n != 1 {
		t.Fatalf("first repair = %d, %v", n, err)
	}
	if len(d.f.store.matches) != 1 || *d.f.store.matches[0].ChallengeID != c.ID {
		t.Fatalf("repair should create the linked match, got %+v", d.f.store.matches)
	}

	n, err = d.f.challenges.RepairAcceptedWithoutMatch(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second repair = %d, %v", n, err)
	}
	if len(d.f.store.matches) != 1 {
		t.Fatalf("repair must be idempotent, got %d matches", len(d.f.store.matches))
	}
}

func TestRepairReportsFailures(t *testing.T) {
	d := newDuel(t)
	c := d.f.store.challenges[d.challenge.ID]
	c.Status = models.ChallengeAccepted
	d.f.store.challenges[c.ID] = c
	d.f.store.failMatchCreate = errors.New("connection reset")

	n, err := d.f.challenges.RepairAcceptedWithoutMatch(context.Background())
	if n != 0 || err == nil || !strings.Contains(err.Error(), c.ID.String()) {
		t.Fatalf("repair = %d, %v", n, err)
	}
}
