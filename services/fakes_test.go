package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/repositories"
	"github.com/Dosada05/matchkid/storage"
	"github.com/Dosada05/matchkid/utils"
)

// store is an in-memory database shared by the fake repositories. WithinTx
// snapshots it and restores the snapshot when the callback fails.
type store struct {
	mu sync.Mutex

	users         map[uuid.UUID]models.User
	teams         []models.Team
	players       []models.Player
	challenges    map[uuid.UUID]models.Challenge
	matches       []models.Match
	tournaments   map[uuid.UUID]models.Tournament
	registrations []models.Registration

	seq     int
	txCalls int

	// failMatchCreate makes the next match insert fail.
	failMatchCreate error
}

func newStore() *store {
	return &store{
		users:       map[uuid.UUID]models.User{},
		challenges:  map[uuid.UUID]models.Challenge{},
		tournaments: map[uuid.UUID]models.Tournament{},
	}
}

func (s *store) tick() time.Time {
	s.seq++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

type snapshot struct {
	users         map[uuid.UUID]models.User
	teams         []models.Team
	players       []models.Player
	challenges    map[uuid.UUID]models.Challenge
	matches       []models.Match
	tournaments   map[uuid.UUID]models.Tournament
	registrations []models.Registration
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:         map[uuid.UUID]models.User{},
		teams:         append([]models.Team(nil), s.teams...),
		players:       append([]models.Player(nil), s.players...),
		challenges:    map[uuid.UUID]models.Challenge{},
		matches:       append([]models.Match(nil), s.matches...),
		tournaments:   map[uuid.UUID]models.Tournament{},
		registrations: append([]models.Registration(nil), s.registrations...),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.challenges {
		snap.challenges[k] = v
	}
	for k, v := range s.tournaments {
		snap.tournaments[k] = v
	}
	return snap
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.teams = snap.teams
	s.players = snap.players
	s.challenges = snap.challenges
	s.matches = snap.matches
	s.tournaments = snap.tournaments
	s.registrations = snap.registrations
}

func (s *store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.mu.Lock()
	s.txCalls++
	s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// --- users

type fakeUserRepo struct{ *store }

func (r fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = r.tick()
	r.users[u.ID] = *u
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

// --- teams

type fakeTeamRepo struct{ *store }

func (r fakeTeamRepo) Create(ctx context.Context, t *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.OwnerID == t.OwnerID && existing.Sport == t.Sport && existing.Category == t.Category {
			return repositories.ErrTeamDuplicate
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = r.tick()
	r.teams = append(r.teams, *t)
	return nil
}

func (r fakeTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r fakeTeamRepo) List(ctx context.Context, f models.TeamFilter) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Team, 0)
	q := strings.ToLower(f.Query)
	for _, t := range r.teams {
		if f.OwnerID != nil && t.OwnerID != *f.OwnerID {
			continue
		}
		if f.Sport != "" && t.Sport != f.Sport {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) && !strings.Contains(strings.ToLower(t.City), q) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r fakeTeamRepo) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := map[uuid.UUID]string{}
	for _, id := range ids {
		for _, t := range r.teams {
			if t.ID == id {
				names[id] = t.Name
			}
		}
	}
	return names, nil
}

func (r fakeTeamRepo) RecordResult(ctx context.Context, exec repositories.SQLExecutor, winnerID, loserID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.teams {
		switch r.teams[i].ID {
		case winnerID:
			r.teams[i].Stats.Wins++
		case loserID:
			r.teams[i].Stats.Losses++
		}
	}
	return nil
}

func (r fakeTeamRepo) UpdateLogoKey(ctx context.Context, id uuid.UUID, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.teams {
		if r.teams[i].ID == id {
			r.teams[i].LogoKey = key
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (r fakeTeamRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.teams), nil
}

// --- players

type fakePlayerRepo struct{ *store }

func (r fakePlayerRepo) Create(ctx context.Context, p *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = r.tick()
	r.players = append(r.players, *p)
	return nil
}

func (r fakePlayerRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Player, 0)
	for _, p := range r.players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r fakePlayerRepo) Delete(ctx context.Context, teamID, playerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.ID == playerID && p.TeamID == teamID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPlayerNotFound
}

// --- challenges

type fakeChallengeRepo struct{ *store }

func (r fakeChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.FromTeamID == c.ToTeamID {
		return repositories.ErrChallengeSameTeam
	}
	c.ID = uuid.New()
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	stored.FromTeamName, stored.ToTeamName = "", ""
	r.challenges[c.ID] = stored
	return nil
}

func (r fakeChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, repositories.ErrChallengeNotFound
	}
	return &c, nil
}

func (r fakeChallengeRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Challenge, error) {
	return r.GetByID(ctx, id)
}

func (r fakeChallengeRepo) Update(ctx context.Context, exec repositories.SQLExecutor, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[c.ID]; !ok {
		return repositories.ErrChallengeNotFound
	}
	if c.FromTeamID == c.ToTeamID {
		return repositories.ErrChallengeSameTeam
	}
	c.UpdatedAt = r.tick()
	stored := *c
	stored.FromTeamName, stored.ToTeamName = "", ""
	r.challenges[c.ID] = stored
	return nil
}

func (r fakeChallengeRepo) filter(keep func(models.Challenge) bool) []models.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Challenge, 0)
	for _, c := range r.challenges {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (r fakeChallengeRepo) ListByToTeams(ctx context.Context, ids []uuid.UUID) ([]models.Challenge, error) {
	return r.filter(func(c models.Challenge) bool { return contains(ids, c.ToTeamID) }), nil
}

func (r fakeChallengeRepo) ListByFromTeams(ctx context.Context, ids []uuid.UUID) ([]models.Challenge, error) {
	return r.filter(func(c models.Challenge) bool { return contains(ids, c.FromTeamID) }), nil
}

func (r fakeChallengeRepo) hasMatch(id uuid.UUID) bool {
	for _, m := range r.matches {
		if m.ChallengeID != nil && *m.ChallengeID == id {
			return true
		}
	}
	return false
}

func (r fakeChallengeRepo) ListAcceptedWithoutMatch(ctx context.Context) ([]models.Challenge, error) {
	return r.filter(func(c models.Challenge) bool {
		return c.Status == models.ChallengeAccepted && !r.hasMatch(c.ID)
	}), nil
}

func (r fakeChallengeRepo) CountByStatus(ctx context.Context, status models.ChallengeStatus) (int, error) {
	return len(r.filter(func(c models.Challenge) bool { return c.Status == status })), nil
}

func (r fakeChallengeRepo) CountAcceptedWithoutMatch(ctx context.Context) (int, error) {
	list, _ := r.ListAcceptedWithoutMatch(ctx)
	return len(list), nil
}

// --- matches

type fakeMatchRepo struct{ *store }

func (r fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failMatchCreate; err != nil {
		r.failMatchCreate = nil
		return err
	}
	if m.ChallengeID != nil {
		for _, existing := range r.matches {
			if existing.ChallengeID != nil && *existing.ChallengeID == *m.ChallengeID {
				return repositories.ErrMatchChallengeConflict
			}
		}
	}
	m.ID = uuid.New()
	m.CreatedAt = r.tick()
	r.matches = append(r.matches, *m)
	return nil
}

func (r fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r fakeMatchRepo) ListByTeams(ctx context.Context, ids []uuid.UUID) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.matches {
		if contains(ids, m.TeamAID) || contains(ids, m.TeamBID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, score string, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.matches {
		if r.matches[i].ID == id {
			s := score
			r.matches[i].Score = &s
			r.matches[i].Status = status
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r fakeMatchRepo) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.matches {
		if m.Status == status {
			n++
		}
	}
	return n, nil
}

// --- tournaments

type fakeTournamentRepo struct{ *store }

func (r fakeTournamentRepo) withTeams(t models.Tournament) models.Tournament {
	t.TeamsRegistered = []uuid.UUID{}
	for _, reg := range r.registrations {
		if reg.TournamentID == t.ID {
			t.TeamsRegistered = append(t.TeamsRegistered, reg.TeamID)
		}
	}
	return t
}

func (r fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = r.tick()
	r.tournaments[t.ID] = *t
	return nil
}

func (r fakeTournamentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	t = r.withTeams(t)
	return &t, nil
}

func (r fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r fakeTournamentRepo) List(ctx context.Context, f models.TournamentFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if f.Sport != "" && t.Sport != f.Sport {
			continue
		}
		out = append(out, r.withTeams(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.tournaments[id] = t
	return nil
}

func (r fakeTournamentRepo) CountByStatus(ctx context.Context, status models.TournamentStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tournaments {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

// --- registrations

type fakeRegistrationRepo struct{ *store }

func (r fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.registrations {
		if existing.TournamentID == reg.TournamentID && existing.TeamID == reg.TeamID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = uuid.New()
	reg.CreatedAt = r.tick()
	r.registrations = append(r.registrations, *reg)
	return nil
}

func (r fakeRegistrationRepo) Exists(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.TeamID == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeRegistrationRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			n++
		}
	}
	return n, nil
}

// --- uploader

type fakeUploader struct {
	objects map[string]string
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string]string{}}
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.objects[key] = string(body)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	if _, ok := u.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// --- fixture

type fixture struct {
	store       *store
	auth        AuthService
	teams       TeamService
	challenges  ChallengeService
	matches     MatchService
	tournaments TournamentService
	dashboard   DashboardService
	uploader    *fakeUploader
	tokens      *utils.TokenManager
}

func newFixture() *fixture {
	st := newStore()
	logger := zerolog.Nop()
	uploader := newFakeUploader()
	users := fakeUserRepo{st}
	teams := fakeTeamRepo{st}
	challenges := fakeChallengeRepo{st}
	matches := fakeMatchRepo{st}
	tournaments := fakeTournamentRepo{st}
	tokens := utils.NewTokenManager("test-secret", time.Hour, clockwork.NewFakeClock())

	return &fixture{
		store:       st,
		auth:        NewAuthService(users, tokens),
		teams:       NewTeamService(teams, fakePlayerRepo{st}, uploader, logger),
		challenges:  NewChallengeService(st, challenges, matches, teams, logger),
		matches:     NewMatchService(st, matches, teams, logger),
		tournaments: NewTournamentService(st, tournaments, fakeRegistrationRepo{st}, teams, logger),
		dashboard:   NewDashboardService(users, teams, challenges, matches, tournaments),
		uploader:    uploader,
		tokens:      tokens,
	}
}

func (f *fixture) coach() Session {
	return Session{UserID: uuid.New(), Role: models.RoleCoach}
}

func (f *fixture) team(s Session, name string, sport models.Sport, category models.Category) models.Team {
	t, err := f.teams.CreateTeam(context.Background(), s, CreateTeamInput{
		Name:     name,
		Sport:    sport,
		Category: category,
		Level:    models.LevelIntermediate,
		City:     "Lyon",
	})
	if err != nil {
		panic(err)
	}
	return *t
}

func zerologNop() zerolog.Logger { return zerolog.Nop() }
