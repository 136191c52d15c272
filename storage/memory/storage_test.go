package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hosting-system/models"
	"tournament-hosting-system/storage"
)

func seed(t *testing.T, s *Storage, tour *models.Tournament) {
	t.Helper()
	if tour.ID == "" {
		tour.ID = uuid.NewString()
	}
	require.NoError(t, s.CreateTournament(context.Background(), tour))
}

func reg(email string) *models.Registration {
	return &models.Registration{
		ID:           uuid.NewString(),
		TeamName:     "Team " + email,
		Email:        email,
		RegisteredAt: time.Now(),
	}
}

func TestCommitRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("commits while a slot is open", func(t *testing.T) {
		s := New()
		tour := &models.Tournament{Name: "Cup", MaxPlayers: 2}
		seed(t, s, tour)

		committed, err := s.CommitRegistration(ctx, tour.ID, reg("a@x.com"))
		require.NoError(t, err)
		assert.True(t, committed)

		got, err := s.FetchTournament(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Players)
		assert.Len(t, got.Registrations, 1)
	})

	t.Run("rejects when full", func(t *testing.T) {
		s := New()
		tour := &models.Tournament{Name: "Cup", MaxPlayers: 1}
		seed(t, s, tour)

		committed, err := s.CommitRegistration(ctx, tour.ID, reg("a@x.com"))
		require.NoError(t, err)
		require.True(t, committed)

		committed, err = s.CommitRegistration(ctx, tour.ID, reg("b@x.com"))
		require.NoError(t, err)
		assert.False(t, committed)

		got, err := s.FetchTournament(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Players)
	})

	t.Run("rejects a repeated email", func(t *testing.T) {
		s := New()
		tour := &models.Tournament{Name: "Cup", MaxPlayers: 5}
		seed(t, s, tour)

		committed, err := s.CommitRegistration(ctx, tour.ID, reg("a@x.com"))
		require.NoError(t, err)
		require.True(t, committed)

		committed, err = s.CommitRegistration(ctx, tour.ID, reg("a@x.com"))
		require.NoError(t, err)
		assert.False(t, committed)
	})

	t.Run("unknown tournament does not commit", func(t *testing.T) {
		s := New()
		committed, err := s.CommitRegistration(ctx, "no-such-id", reg("a@x.com"))
		require.NoError(t, err)
		assert.False(t, committed)
	})
}

func TestFetchTournamentReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()
	tour := &models.Tournament{Name: "Cup", MaxPlayers: 4}
	seed(t, s, tour)

	got, err := s.FetchTournament(ctx, tour.ID)
	require.NoError(t, err)
	got.Players = 99
	got.Registrations = append(got.Registrations, *reg("mut@x.com"))

	fresh, err := s.FetchTournament(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Players)
	assert.Empty(t, fresh.Registrations)
}

func TestListTournamentsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	seed(t, s, &models.Tournament{Name: "Valorant Open", Game: "Valorant", Platform: "PC", Status: models.StatusApproved, Players: 8, MaxPlayers: 16})
	seed(t, s, &models.Tournament{Name: "FIFA Night", Game: "FIFA 26", Platform: "PS5", Status: models.StatusLive, Featured: true, Players: 12, MaxPlayers: 16})
	seed(t, s, &models.Tournament{Name: "Secret Draft", Game: "Valorant", Platform: "PC", Status: models.StatusPending, MaxPlayers: 8})

	t.Run("by status", func(t *testing.T) {
		out, err := s.ListTournaments(ctx, storage.TournamentFilter{Statuses: models.PublicStatuses})
		require.NoError(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, "Valorant Open", out[0].Name)
	})

	t.Run("by game, case insensitive", func(t *testing.T) {
		out, err := s.ListTournaments(ctx, storage.TournamentFilter{Game: "valorant"})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("by name search", func(t *testing.T) {
		out, err := s.ListTournaments(ctx, storage.TournamentFilter{Search: "fifa"})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "FIFA Night", out[0].Name)
	})

	t.Run("featured sorted by players with limit", func(t *testing.T) {
		out, err := s.ListTournaments(ctx, storage.TournamentFilter{
			Statuses:      []string{models.StatusLive, models.StatusUpcoming},
			FeaturedOnly:  true,
			SortByPlayers: true,
			Limit:         6,
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "FIFA Night", out[0].Name)
	})

	t.Run("newest first without sort", func(t *testing.T) {
		out, err := s.ListTournaments(ctx, storage.TournamentFilter{})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "Secret Draft", out[0].Name)
	})
}

func TestDeleteTournamentRemovesRoster(t *testing.T) {
	ctx := context.Background()
	s := New()
	tour := &models.Tournament{Name: "Cup", MaxPlayers: 4}
	seed(t, s, tour)

	committed, err := s.CommitRegistration(ctx, tour.ID, reg("a@x.com"))
	require.NoError(t, err)
	require.True(t, committed)

	require.NoError(t, s.DeleteTournament(ctx, tour.ID))

	_, err = s.FetchTournament(ctx, tour.ID)
	assert.ErrorIs(t, err, models.ErrTournamentNotFound)
	_, err = s.CountRegistrations(ctx, tour.ID)
	assert.ErrorIs(t, err, models.ErrTournamentNotFound)
}

func TestUpsertUserPreservesRole(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &models.User{ID: uuid.NewString(), Name: "Ana", Email: "ana@x.com", Role: models.RoleHost}
	require.NoError(t, s.CreateUser(ctx, u))

	require.NoError(t, s.UpsertUser(ctx, &models.User{
		ID:    uuid.NewString(),
		Name:  "Ana B",
		Email: "ana@x.com",
		Photo: "https://cdn.example.com/ana.png",
		Role:  models.RoleStudent,
	}))

	got, err := s.GetUserByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", got.Name)
	assert.Equal(t, "https://cdn.example.com/ana.png", got.Photo)
	assert.Equal(t, models.RoleHost, got.Role)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: uuid.NewString(), Email: "a@x.com"}))
	err := s.CreateUser(ctx, &models.User{ID: uuid.NewString(), Email: "a@x.com"})
	assert.ErrorIs(t, err, models.ErrUserExists)
}
