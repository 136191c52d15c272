package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tournament-hosting-system/models"
	"tournament-hosting-system/storage"
)

// Storage is an in-memory implementation of storage.Store. It preserves the
// conditional-commit semantics of the Postgres store and backs the tests.
type Storage struct {
	mu sync.RWMutex

	tournaments map[string]*models.Tournament
	// insertion order of tournaments, newest last
	order []string

	users      map[string]*models.User
	emailIndex map[string]string
}

func New() *Storage {
	return &Storage{
		tournaments: make(map[string]*models.Tournament),
		users:       make(map[string]*models.User),
		emailIndex:  make(map[string]string),
	}
}

var _ storage.Store = (*Storage)(nil)

func cloneTournament(t *models.Tournament) *models.Tournament {
	cp := *t
	cp.Registrations = make([]models.Registration, len(t.Registrations))
	copy(cp.Registrations, t.Registrations)
	return &cp
}

// Tournament operations

func (s *Storage) FetchTournament(ctx context.Context, id string) (*models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, models.ErrTournamentNotFound
	}
	return cloneTournament(t), nil
}

func (s *Storage) ListTournaments(ctx context.Context, filter storage.TournamentFilter) ([]models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Tournament
	// iterate newest first
	for i := len(s.order) - 1; i >= 0; i-- {
		t, ok := s.tournaments[s.order[i]]
		if !ok {
			continue
		}
		if !matchesFilter(t, filter) {
			continue
		}
		out = append(out, *cloneTournament(t))
	}
	if filter.SortByPlayers {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Players > out[j].Players
		})
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesFilter(t *models.Tournament, filter storage.TournamentFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, st := range filter.Statuses {
			if t.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Game != "" && !strings.Contains(strings.ToLower(t.Game), strings.ToLower(filter.Game)) {
		return false
	}
	if filter.Platform != "" && !strings.Contains(strings.ToLower(t.Platform), strings.ToLower(filter.Platform)) {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.HostEmail != "" && t.HostEmail != filter.HostEmail {
		return false
	}
	if filter.FeaturedOnly && !t.Featured {
		return false
	}
	return true
}

func (s *Storage) CreateTournament(ctx context.Context, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[t.ID] = cloneTournament(t)
	s.order = append(s.order, t.ID)
	return nil
}

func (s *Storage) UpdateTournament(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return models.ErrTournamentNotFound
	}
	applyTournamentFields(t, fields)
	return nil
}

func applyTournamentFields(t *models.Tournament, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "name":
			t.Name = v.(string)
		case "slug":
			t.Slug = v.(string)
		case "game":
			t.Game = v.(string)
		case "platform":
			t.Platform = v.(string)
		case "description":
			t.Description = v.(string)
		case "prize":
			t.Prize = v.(string)
		case "prize_pool":
			t.PrizePool = v.(float64)
		case "entry_fee":
			t.EntryFee = v.(float64)
		case "max_players":
			t.MaxPlayers = v.(int)
		case "team_size":
			t.TeamSize = v.(int)
		case "image":
			t.Image = v.(string)
		case "featured":
			t.Featured = v.(bool)
		case "status":
			t.Status = v.(string)
		case "admin_feedback":
			t.AdminFeedback = v.(string)
		}
	}
}

func (s *Storage) UpdateTournamentStatus(ctx context.Context, id string, status, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return models.ErrTournamentNotFound
	}
	t.Status = status
	if feedback != "" {
		t.AdminFeedback = feedback
	}
	return nil
}

func (s *Storage) DeleteTournament(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tournaments[id]; !ok {
		return models.ErrTournamentNotFound
	}
	delete(s.tournaments, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// CommitRegistration re-validates capacity and email absence under the lock
// before appending, matching the Postgres conditional update.
func (s *Storage) CommitRegistration(ctx context.Context, tournamentID string, reg *models.Registration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[tournamentID]
	if !ok {
		return false, nil
	}
	if t.Players >= t.MaxPlayers {
		return false, nil
	}
	for _, existing := range t.Registrations {
		if existing.Email == reg.Email {
			return false, nil
		}
	}
	t.Registrations = append(t.Registrations, *reg)
	t.Players++
	return true, nil
}

func (s *Storage) CountRegistrations(ctx context.Context, tournamentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[tournamentID]
	if !ok {
		return 0, models.ErrTournamentNotFound
	}
	return int64(len(t.Registrations)), nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emailIndex[u.Email]; ok {
		return models.ErrUserExists
	}
	cp := *u
	s.users[u.ID] = &cp
	s.emailIndex[u.Email] = u.ID
	return nil
}

func (s *Storage) UpsertUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.emailIndex[u.Email]; ok {
		existing := s.users[id]
		existing.Name = u.Name
		existing.Photo = u.Photo
		return nil
	}
	cp := *u
	s.users[u.ID] = &cp
	s.emailIndex[u.Email] = u.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "photo":
			u.Photo = v.(string)
		case "role":
			u.Role = v.(string)
		}
	}
	return nil
}

func (s *Storage) UpdateUserRole(ctx context.Context, email, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return models.ErrUserNotFound
	}
	s.users[id].Role = role
	return nil
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	delete(s.emailIndex, u.Email)
	delete(s.users, id)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}
