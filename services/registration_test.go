package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tournament-hosting-system/models"
	"tournament-hosting-system/storage/memory"
)

type RegistrationSuite struct {
	suite.Suite
	store *memory.Storage
	svc   *TournamentService
	ctx   context.Context
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	s.store = memory.New()
	s.svc = NewTournamentService(s.store)
	s.ctx = context.Background()
}

func (s *RegistrationSuite) seedTournament(maxPlayers int, status string) string {
	t := &models.Tournament{
		ID:         uuid.NewString(),
		Name:       "Test Cup",
		Game:       "Valorant",
		Platform:   "PC",
		MaxPlayers: maxPlayers,
		TeamSize:   4,
		Status:     status,
		HostEmail:  "host@example.com",
	}
	s.Require().NoError(s.store.CreateTournament(s.ctx, t))
	return t.ID
}

func input(email string) RegistrationInput {
	return RegistrationInput{
		TeamName:    "Team " + email,
		TeamMembers: []string{"alice", "bob"},
		Email:       email,
		Phone:       "555-0100",
	}
}

func (s *RegistrationSuite) TestRegisterSucceeds() {
	id := s.seedTournament(10, models.StatusApproved)

	reg, err := s.svc.Register(s.ctx, id, input("a@x.com"))
	s.Require().NoError(err)
	s.NotEmpty(reg.ID)
	s.Equal("a@x.com", reg.Email)
	s.False(reg.RegisteredAt.IsZero())

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, t.Players)
	s.Len(t.Registrations, 1)
	s.True(t.HasRegistrationFor("a@x.com"))
}

func (s *RegistrationSuite) TestRegisterUnknownTournament() {
	_, err := s.svc.Register(s.ctx, "no-such-id", input("a@x.com"))
	s.ErrorIs(err, models.ErrTournamentNotFound)
}

func (s *RegistrationSuite) TestRegisterDuplicateEmail() {
	id := s.seedTournament(10, models.StatusApproved)

	_, err := s.svc.Register(s.ctx, id, input("a@x.com"))
	s.Require().NoError(err)

	_, err = s.svc.Register(s.ctx, id, input("a@x.com"))
	s.ErrorIs(err, models.ErrAlreadyRegistered)

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, t.Players)
	s.Len(t.Registrations, 1)
}

func (s *RegistrationSuite) TestDuplicateCheckIsCaseSensitive() {
	id := s.seedTournament(10, models.StatusApproved)

	_, err := s.svc.Register(s.ctx, id, input("a@x.com"))
	s.Require().NoError(err)

	// the store compares emails exactly; a different casing is a new key
	_, err = s.svc.Register(s.ctx, id, input("A@x.com"))
	s.NoError(err)
}

func (s *RegistrationSuite) TestRegisterFullTournament() {
	id := s.seedTournament(5, models.StatusApproved)

	for i := 0; i < 5; i++ {
		_, err := s.svc.Register(s.ctx, id, input(fmt.Sprintf("p%d@x.com", i)))
		s.Require().NoError(err)
	}

	_, err := s.svc.Register(s.ctx, id, input("late@x.com"))
	s.ErrorIs(err, models.ErrTournamentFull)

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(5, t.Players)
	s.Len(t.Registrations, 5)
}

func (s *RegistrationSuite) TestConcurrentLastSlot() {
	id := s.seedTournament(1, models.StatusApproved)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.svc.Register(s.ctx, id, input(fmt.Sprintf("racer%d@x.com", i)))
		}(i)
	}
	wg.Wait()

	var succeeded, full int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrTournamentFull):
			full++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, full)

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, t.Players)
	s.Len(t.Registrations, 1)
}

func (s *RegistrationSuite) TestConcurrentAttemptsNeverOverfill() {
	const maxPlayers = 3
	const attempts = 20
	id := s.seedTournament(maxPlayers, models.StatusApproved)

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.svc.Register(s.ctx, id, input(fmt.Sprintf("team%d@x.com", i)))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, models.ErrTournamentFull)
		}
	}
	s.Equal(maxPlayers, succeeded)

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(maxPlayers, t.Players)
	s.Len(t.Registrations, maxPlayers)
}

func (s *RegistrationSuite) TestCountMatchesRosterAfterEveryCommit() {
	id := s.seedTournament(10, models.StatusApproved)

	for i := 0; i < 10; i++ {
		_, err := s.svc.Register(s.ctx, id, input(fmt.Sprintf("p%d@x.com", i)))
		s.Require().NoError(err)

		t, err := s.store.FetchTournament(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(t.Players, len(t.Registrations))
	}
}

func (s *RegistrationSuite) TestRosterPreservesRegistrationOrder() {
	id := s.seedTournament(10, models.StatusApproved)

	for i := 0; i < 4; i++ {
		_, err := s.svc.Register(s.ctx, id, input(fmt.Sprintf("p%d@x.com", i)))
		s.Require().NoError(err)
	}

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	for i, reg := range t.Registrations {
		s.Equal(fmt.Sprintf("p%d@x.com", i), reg.Email)
	}
}

// A resubmitted commit after a timed-out-but-successful write must be a no-op:
// the write filter excludes the already-present email.
func (s *RegistrationSuite) TestResubmittedCommitIsRejectedByFilter() {
	id := s.seedTournament(10, models.StatusApproved)

	reg, err := s.svc.Register(s.ctx, id, input("a@x.com"))
	s.Require().NoError(err)

	committed, err := s.store.CommitRegistration(s.ctx, id, reg)
	s.Require().NoError(err)
	s.False(committed)

	t, err := s.store.FetchTournament(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, t.Players)
	s.Len(t.Registrations, 1)
}

func (s *RegistrationSuite) TestInvalidInputRejectedBeforeStoreAccess() {
	cases := []RegistrationInput{
		{TeamName: "NoMail", TeamMembers: []string{"a"}, Email: ""},
		{TeamName: "BadMail", TeamMembers: []string{"a"}, Email: "not-an-email"},
		{TeamName: "BadMail2", TeamMembers: []string{"a"}, Email: "a@b"},
		{TeamName: "", TeamMembers: []string{"a"}, Email: "a@x.com"},
		{TeamName: "BlankMember", TeamMembers: []string{" "}, Email: "a@x.com"},
	}

	for _, in := range cases {
		// an unknown tournament id proves validation precedes the fetch
		_, err := s.svc.Register(s.ctx, "no-such-id", in)
		s.ErrorIs(err, models.ErrInvalidInput)
	}
}

// The committer does not consult lifecycle status; registering into a
// completed tournament is allowed as long as a slot is open.
func (s *RegistrationSuite) TestRegisterDoesNotConsultStatus() {
	id := s.seedTournament(10, models.StatusCompleted)

	_, err := s.svc.Register(s.ctx, id, input("a@x.com"))
	s.NoError(err)
}
