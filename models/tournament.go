package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tournament lifecycle statuses. A tournament is created as pending and moves
// between statuses only through the admin status endpoint.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusUpcoming  = "upcoming"
	StatusLive      = "live"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatuses is the full status vocabulary accepted by the status endpoint.
var ValidStatuses = []string{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusUpcoming,
	StatusLive,
	StatusCompleted,
	StatusCancelled,
}

// IsValidStatus reports whether s is one of the recognized lifecycle statuses.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PublicStatuses are the statuses visible on the public tournament listing.
var PublicStatuses = []string{StatusApproved, StatusUpcoming, StatusLive, StatusCompleted}

// Tournament represents one hosted competitive event.
type Tournament struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null"`
	Slug        string  `json:"slug" gorm:"index"`
	Game        string  `json:"game"`
	Platform    string  `json:"platform"`
	Description string  `json:"description"`
	Prize       string  `json:"prize"`
	PrizePool   float64 `json:"prizePool" gorm:"default:0"`
	EntryFee    float64 `json:"entryFee" gorm:"default:0"`

	// Players mirrors the length of Registrations and is maintained only by
	// the conditional registration commit.
	Players    int `json:"players" gorm:"default:0"`
	MaxPlayers int `json:"maxPlayers" gorm:"not null"`
	TeamSize   int `json:"teamSize" gorm:"default:1"`

	Date      string    `json:"date"`
	StartDate time.Time `json:"startDate"`

	Status        string         `json:"status" gorm:"default:'pending';index"`
	Featured      bool           `json:"featured" gorm:"default:false"`
	Image         string         `json:"image"`
	Rules         datatypes.JSON `json:"rules,omitempty"`
	AdminFeedback string         `json:"adminFeedback,omitempty"`

	HostName  string `json:"hostName"`
	HostEmail string `json:"hostEmail" gorm:"index"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Ordered roster; insertion order is registration order.
	Registrations []Registration `json:"registeredTeams" gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE"`
}

// HasCapacity reports whether the tournament still has an open slot. Pure
// snapshot check; the conditional commit re-validates it at write time.
func (t *Tournament) HasCapacity() bool {
	return t.Players < t.MaxPlayers
}

// HasRegistrationFor reports whether a registration with the given contact
// email already exists on the roster. Exact, case-sensitive match.
func (t *Tournament) HasRegistrationFor(email string) bool {
	for _, reg := range t.Registrations {
		if reg.Email == email {
			return true
		}
	}
	return false
}

// Registration is one team's claim on a tournament slot. Within a tournament
// it is keyed by contact email; there is no edit or cancel flow.
type Registration struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	TournamentID string         `json:"tournament_id" gorm:"not null;index;uniqueIndex:idx_registrations_tournament_email"`
	TeamName     string         `json:"teamName"`
	TeamMembers  datatypes.JSON `json:"teamMembers"`
	Email        string         `json:"email" gorm:"not null;uniqueIndex:idx_registrations_tournament_email"`
	Phone        string         `json:"phone"`
	RegisteredAt time.Time      `json:"registeredAt" gorm:"autoCreateTime"`
}

// MiniTournament is the brief card shape used by list views.
type MiniTournament struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Game       string    `json:"game"`
	Platform   string    `json:"platform"`
	Status     string    `json:"status"`
	Prize      string    `json:"prize"`
	EntryFee   float64   `json:"entryFee"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	StartDate  time.Time `json:"startDate"`
	Featured   bool      `json:"featured"`
	Image      string    `json:"image"`
}

// Mini returns the list-view projection of the tournament.
func (t *Tournament) Mini() MiniTournament {
	return MiniTournament{
		ID:         t.ID,
		Name:       t.Name,
		Slug:       t.Slug,
		Game:       t.Game,
		Platform:   t.Platform,
		Status:     t.Status,
		Prize:      t.Prize,
		EntryFee:   t.EntryFee,
		Players:    t.Players,
		MaxPlayers: t.MaxPlayers,
		StartDate:  t.StartDate,
		Featured:   t.Featured,
		Image:      t.Image,
	}
}
