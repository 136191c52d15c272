package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tournament-hosting-system/models"
)

// RegistrationInput is one team's request for a tournament slot.
type RegistrationInput struct {
	TeamName    string   `json:"teamName"`
	TeamMembers []string `json:"teamMembers"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
}

func (in *RegistrationInput) validate() error {
	if in.TeamName == "" {
		return fmt.Errorf("%w: teamName is required", models.ErrInvalidInput)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}
	// same shape check the platform uses everywhere: local@domain.tld
	at := strings.Index(in.Email, "@")
	dot := strings.LastIndex(in.Email, ".")
	if at < 1 || dot < at+2 || dot == len(in.Email)-1 || strings.ContainsAny(in.Email, " \t") {
		return fmt.Errorf("%w: malformed email", models.ErrInvalidInput)
	}
	for _, m := range in.TeamMembers {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: team member names cannot be blank", models.ErrInvalidInput)
		}
	}
	return nil
}

// Register admits one team into a tournament. The flow is fetch, precondition
// checks in order (existence, capacity, duplicate email), then a single
// conditional append-and-increment against the store. The write's filter
// restates capacity and email absence, so a concurrent registration that
// consumed the last slot between our read and our write makes the commit a
// no-op rather than an overbooking. A failed commit is classified by
// re-reading: the caller cannot otherwise tell a vanished tournament from a
// lost race.
//
// Register never retries; a timed-out attempt is the caller's to resubmit, and
// resubmission is safe because the commit filter excludes the email.
func (s *TournamentService) Register(ctx context.Context, tournamentID string, input RegistrationInput) (*models.Registration, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tournament, err := s.Store.FetchTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.HasCapacity() {
		return nil, models.ErrTournamentFull
	}
	if tournament.HasRegistrationFor(input.Email) {
		return nil, models.ErrAlreadyRegistered
	}

	members, err := json.Marshal(input.TeamMembers)
	if err != nil {
		return nil, fmt.Errorf("%w: team members not encodable", models.ErrInvalidInput)
	}

	reg := &models.Registration{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		TeamName:     input.TeamName,
		TeamMembers:  members,
		Email:        input.Email,
		Phone:        input.Phone,
		RegisteredAt: time.Now(),
	}

	committed, err := s.Store.CommitRegistration(ctx, tournamentID, reg)
	if err != nil {
		return nil, err
	}
	if committed {
		return reg, nil
	}

	// The write-time filter rejected the commit. Re-read to classify why.
	current, err := s.Store.FetchTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if current.HasRegistrationFor(input.Email) {
		return nil, models.ErrAlreadyRegistered
	}
	return nil, models.ErrTournamentFull
}

// RegisterForTournament handles POST /tournaments/:id/register.
func (s *TournamentService) RegisterForTournament(c *fiber.Ctx) error {
	var input RegistrationInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid JSON"})
	}

	_, err := s.Register(c.Context(), c.Params("id"), input)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrTournamentNotFound):
		return c.Status(404).JSON(fiber.Map{"error": true, "message": "Tournament not found"})
	case errors.Is(err, models.ErrTournamentFull):
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "Tournament is full"})
	case errors.Is(err, models.ErrAlreadyRegistered):
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "Already registered for this tournament"})
	case errors.Is(err, models.ErrInvalidInput):
		return c.Status(400).JSON(fiber.Map{"error": true, "message": err.Error()})
	default:
		log.Printf("❌ [REGISTER] %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error registering for tournament"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Successfully registered for tournament"})
}
