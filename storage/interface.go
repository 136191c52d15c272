package storage

import (
	"context"

	"tournament-hosting-system/models"
)

// TournamentFilter narrows ListTournaments. Zero values mean "no constraint".
type TournamentFilter struct {
	Statuses     []string
	Game         string
	Platform     string
	Search       string
	HostEmail    string
	FeaturedOnly bool
	Limit        int
	// SortByPlayers orders by current player count descending instead of the
	// default newest-first ordering.
	SortByPlayers bool
}

// Store is the persistence contract for the platform. The production
// implementation lives in storage/postgres; storage/memory backs the tests.
//
// All tournament mutation happens through document-level operations on a
// single tournament; there is no cross-tournament coordination.
type Store interface {
	// Tournament operations
	FetchTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error)
	CreateTournament(ctx context.Context, t *models.Tournament) error
	UpdateTournament(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateTournamentStatus(ctx context.Context, id string, status, feedback string) error
	DeleteTournament(ctx context.Context, id string) error

	// CommitRegistration atomically appends reg to the tournament's roster and
	// increments its player count by one, but only if the write-time filter
	// still holds: the tournament exists, has an open slot, and carries no
	// registration with reg's contact email. Returns committed=false with a
	// nil error when the filter did not match; the caller re-reads to classify
	// why. Exactly one of {no write, one append+increment} happens.
	CommitRegistration(ctx context.Context, tournamentID string, reg *models.Registration) (committed bool, err error)

	// CountRegistrations returns the roster length, bypassing the cached
	// player count. Used by the roster audit.
	CountRegistrations(ctx context.Context, tournamentID string) (int64, error)

	// User operations
	CreateUser(ctx context.Context, u *models.User) error
	UpsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateUserRole(ctx context.Context, email, role string) error
	DeleteUser(ctx context.Context, id string) error

	// Ping reports store connectivity for the health endpoint.
	Ping(ctx context.Context) error
}
