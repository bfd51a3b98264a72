package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/datewheel"
	"github.com/Dosada05/matchkid/models"
)

func (d *duel) accepted(t *testing.T) *models.Match {
	t.Helper()
	_, m, err := d.f.challenges.Accept(context.Background(), d.away, d.challenge.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return m
}

func (d *duel) stats(id uuid.UUID) models.TeamStats {
	for _, team := range d.f.store.teams {
		if team.ID == id {
			return team.Stats
		}
	}
	return models.TeamStats{}
}

func TestParseScore(t *testing.T) {
	valid := map[string]int{"0": 0, "3": 3, " 12 ": 12}
	for in, want := range valid {
		got, err := ParseScore(in)
		if err != nil || got != want {
			t.Errorf("ParseScore(%q) = %d, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "  ", "-1", "+3", "2.5", "1e2", "trois", "1-0", "99999999999999999999"} {
		if _, err := ParseScore(in); !errors.Is(err, ErrInvalidScore) {
			t.Errorf("ParseScore(%q) expected ErrInvalidScore, got %v", in, err)
		}
	}
}

func TestScoreInputAcceptsStringsAndIntegers(t *testing.T) {
	var input ScoreInput
	if err := json.Unmarshal([]byte(`{"score_a":3,"score_b":"1"}`), &input); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if input.ScoreA != "3" || input.ScoreB != "1" {
		t.Fatalf("input = %+v", input)
	}

	if err := json.Unmarshal([]byte(`{"score_a":-2,"score_b":null}`), &input); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, err := ParseScore(string(input.ScoreA)); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("negative integer accepted: %q", input.ScoreA)
	}
	if _, err := ParseScore(string(input.ScoreB)); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("null score accepted: %q", input.ScoreB)
	}

	if err := json.Unmarshal([]byte(`{"score_a":true}`), &input); err == nil {
		t.Error("boolean score accepted")
	}
}

func TestRecordScoreFinishesMatchOnce(t *testing.T) {
	d := newDuel(t)
	m := d.accepted(t)
	ctx := context.Background()

	got, err := d.f.matches.RecordScore(ctx, d.home, m.ID, "3", "1")
	if err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if got.Status != models.MatchFinished || got.Score == nil || *got.Score != "3-1" {
		t.Fatalf("unexpected match %+v", got)
	}
	if got.TeamAName != "Les Lions" || got.TeamBName != "Les Aigles" {
		t.Fatalf("names = %q/%q", got.TeamAName, got.TeamBName)
	}

	if _, err := d.f.matches.RecordScore(ctx, d.away, m.ID, "0", "0"); !errors.Is(err, ErrMatchAlreadyFinished) {
		t.Fatalf("second score: expected ErrMatchAlreadyFinished, got %v", err)
	}
	if s := *d.f.store.matches[0].Score; s != "3-1" {
		t.Fatalf("stored score changed to %q", s)
	}
}

func TestRecordScoreUpdatesStats(t *testing.T) {
	d := newDuel(t)
	m := d.accepted(t)

	if _, err := d.f.matches.RecordScore(context.Background(), d.away, m.ID, "0", "2"); err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if s := d.stats(d.awayTeam.ID); s.Wins != 1 || s.Losses != 0 {
		t.Fatalf("winner stats = %+v", s)
	}
	if s := d.stats(d.homeTeam.ID); s.Wins != 0 || s.Losses != 1 {
		t.Fatalf("loser stats = %+v", s)
	}
}

func TestRecordScoreDrawLeavesStats(t *testing.T) {
	d := newDuel(t)
	m := d.accepted(t)

	got, err := d.f.matches.RecordScore(context.Background(), d.home, m.ID, "2", "2")
	if err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if *got.Score != "2-2" {
		t.Fatalf("score = %q", *got.Score)
	}
	for _, id := range []uuid.UUID{d.homeTeam.ID, d.awayTeam.ID} {
		if s := d.stats(id); s != (models.TeamStats{}) {
			t.Fatalf("draw changed stats of %s: %+v", id, s)
		}
	}
}

func TestRecordScoreRejections(t *testing.T) {
	d := newDuel(t)
	m := d.accepted(t)
	ctx := context.Background()

	if _, err := d.f.matches.RecordScore(ctx, d.f.coach(), m.ID, "1", "0"); !errors.Is(err, ErrNotMatchParticipant) {
		t.Errorf("stranger: expected ErrNotMatchParticipant, got %v", err)
	}
	if _, err := d.f.matches.RecordScore(ctx, d.home, m.ID, "1", ""); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("missing score: expected ErrInvalidScore, got %v", err)
	}
	if _, err := d.f.matches.RecordScore(ctx, d.home, uuid.New(), "1", "0"); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("unknown match: expected ErrMatchNotFound, got %v", err)
	}
	if _, err := d.f.matches.RecordScore(ctx, Session{}, m.ID, "1", "0"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous: expected ErrUnauthenticated, got %v", err)
	}
	if d.f.store.matches[0].Status != models.MatchScheduled {
		t.Fatal("rejected scores must not finish the match")
	}
}

func TestListMineOrdersByDate(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()
	d.accepted(t)

	// A second, earlier fixture against a third team.
	third := d.f.coach()
	other := d.f.team(third, "Les Ours", models.SportFootball, models.CategoryU11U13)
	c, err := d.f.challenges.Create(ctx, third, CreateChallengeInput{ToTeamID: d.homeTeam.ID, Date: datewheel.New(2025, 6, 7, 10, 30), Location: "Vaise"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := d.f.challenges.Accept(ctx, d.home, c.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	list, err := d.f.matches.ListMine(ctx, d.home)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}
	if list[0].TeamAID != other.ID || list[0].TeamAName != "Les Ours" {
		t.Fatalf("earliest match first, got %+v", list[0])
	}

	away, err := d.f.matches.ListMine(ctx, d.away)
	if err != nil || len(away) != 1 {
		t.Fatalf("away matches = %d, %v", len(away), err)
	}
}
