package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"tournament-hosting-system/middleware"
	"tournament-hosting-system/models"
	"tournament-hosting-system/storage"
	"tournament-hosting-system/utils"
)

type TournamentService struct {
	Store storage.Store
}

func NewTournamentService(store storage.Store) *TournamentService {
	return &TournamentService{Store: store}
}

// GetAllTournaments lists publicly visible tournaments. Pending and rejected
// tournaments never appear here.
func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	filter := storage.TournamentFilter{
		Statuses: models.PublicStatuses,
		Game:     queryFilter(c, "game"),
		Platform: queryFilter(c, "platform"),
		Search:   c.Query("search"),
	}
	if status := queryFilter(c, "status"); status != "" {
		if !models.IsValidStatus(status) {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "Invalid status filter"})
		}
		filter.Statuses = []string{status}
	}

	tournaments, err := s.Store.ListTournaments(c.Context(), filter)
	if err != nil {
		log.Printf("❌ [TOURNAMENTS] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching tournaments"})
	}
	return c.JSON(tournaments)
}

// queryFilter reads a query param, treating "all" as no constraint.
func queryFilter(c *fiber.Ctx, key string) string {
	v := c.Query(key)
	if v == "all" {
		return ""
	}
	return v
}

// GetFeaturedTournaments returns up to six featured live/upcoming tournaments,
// most subscribed first.
func (s *TournamentService) GetFeaturedTournaments(c *fiber.Ctx) error {
	tournaments, err := s.Store.ListTournaments(c.Context(), storage.TournamentFilter{
		Statuses:      []string{models.StatusLive, models.StatusUpcoming},
		FeaturedOnly:  true,
		SortByPlayers: true,
		Limit:         6,
	})
	if err != nil {
		log.Printf("❌ [TOURNAMENTS] featured list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching featured tournaments"})
	}

	minis := make([]models.MiniTournament, len(tournaments))
	for i := range tournaments {
		minis[i] = tournaments[i].Mini()
	}
	return c.JSON(minis)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	tournament, err := s.Store.FetchTournament(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrTournamentNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "Tournament not found"})
		}
		log.Printf("❌ [TOURNAMENTS] fetch %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching tournament"})
	}
	return c.JSON(tournament)
}

// CreateTournament creates a tournament for the calling host. Accepts either a
// JSON body or a multipart form with an optional "image" file upload.
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	type Req struct {
		Name        string   `json:"name"`
		Game        string   `json:"game"`
		Platform    string   `json:"platform"`
		Description string   `json:"description"`
		Prize       string   `json:"prize"`
		PrizePool   float64  `json:"prizePool"`
		EntryFee    float64  `json:"entryFee"`
		MaxPlayers  int      `json:"maxPlayers"`
		TeamSize    int      `json:"teamSize"`
		Date        string   `json:"date"`
		StartDate   string   `json:"startDate"`
		Status      string   `json:"status"`
		Image       string   `json:"image"`
		Rules       []string `json:"rules"`
		HostName    string   `json:"hostName"`
	}

	var req Req
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		req.Name = c.FormValue("name")
		req.Game = c.FormValue("game")
		req.Platform = c.FormValue("platform")
		req.Description = c.FormValue("description")
		req.Prize = c.FormValue("prize")
		req.Date = c.FormValue("date")
		req.StartDate = c.FormValue("startDate")
		req.Status = c.FormValue("status")
		req.Image = c.FormValue("image")
		req.HostName = c.FormValue("hostName")
		if v := c.FormValue("prizePool"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": true, "message": "prizePool must be a number"})
			}
			req.PrizePool = f
		}
		if v := c.FormValue("entryFee"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": true, "message": "entryFee must be a number"})
			}
			req.EntryFee = f
		}
		if v := c.FormValue("maxPlayers"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": true, "message": "maxPlayers must be an integer"})
			}
			req.MaxPlayers = n
		}
		if v := c.FormValue("teamSize"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": true, "message": "teamSize must be an integer"})
			}
			req.TeamSize = n
		}
	} else if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid JSON", "details": err.Error()})
	}

	if req.Name == "" || req.Game == "" {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "name and game are required"})
	}
	if req.MaxPlayers <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "maxPlayers must be a positive integer"})
	}
	if req.EntryFee < 0 || req.PrizePool < 0 {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "entryFee and prizePool must be non-negative"})
	}

	status := models.StatusPending
	if req.Status != "" {
		if !models.IsValidStatus(req.Status) {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "Invalid status"})
		}
		status = req.Status
	}

	var startDate time.Time
	if req.StartDate != "" {
		var err error
		startDate, err = time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid startDate (use RFC3339)"})
		}
	}

	teamSize := req.TeamSize
	if teamSize <= 0 {
		teamSize = 1
	}

	imageURL := req.Image
	if image, err := c.FormFile("image"); err == nil && image.Size > 0 {
		imageURL, err = s.storeImage(image)
		if err != nil {
			log.Printf("❌ [TOURNAMENTS] image upload failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": true, "message": "failed to upload tournament image"})
		}
	}

	var rules []byte
	if len(req.Rules) > 0 {
		rules, _ = json.Marshal(req.Rules)
	}

	tournament := &models.Tournament{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Game:        req.Game,
		Platform:    req.Platform,
		Description: req.Description,
		Prize:       req.Prize,
		PrizePool:   req.PrizePool,
		EntryFee:    req.EntryFee,
		Players:     0,
		MaxPlayers:  req.MaxPlayers,
		TeamSize:    teamSize,
		Date:        req.Date,
		StartDate:   startDate,
		Status:      status,
		Image:       imageURL,
		Rules:       rules,
		HostName:    req.HostName,
		HostEmail:   identity.Email,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.Store.CreateTournament(c.Context(), tournament); err != nil {
		log.Printf("❌ [TOURNAMENTS] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error creating tournament"})
	}

	log.Printf("✅ [TOURNAMENTS] created %s (%s) by %s", tournament.Name, tournament.ID, identity.Email)
	return c.Status(201).JSON(fiber.Map{
		"success":    true,
		"message":    "Tournament created successfully",
		"insertedId": tournament.ID,
	})
}

// storeImage uploads to R2 when configured, otherwise saves to the local
// uploads dir served under /uploads.
func (s *TournamentService) storeImage(image *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(image.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "tournaments/" + uuid.NewString() + ext
	if utils.R2Enabled() {
		return utils.UploadFileToR2(image, key)
	}
	filename := strings.ReplaceAll(key, "/", "-")
	if err := utils.SaveFile(image, utils.GetUploadPath(filename)); err != nil {
		return "", err
	}
	return "/uploads/" + filename, nil
}

// UpdateTournament applies a partial update. Player count, roster and status
// are not updatable here; the committer and the status endpoint own those.
func (s *TournamentService) UpdateTournament(c *fiber.Ctx) error {
	type Req struct {
		Name        *string  `json:"name"`
		Game        *string  `json:"game"`
		Platform    *string  `json:"platform"`
		Description *string  `json:"description"`
		Prize       *string  `json:"prize"`
		PrizePool   *float64 `json:"prizePool"`
		EntryFee    *float64 `json:"entryFee"`
		MaxPlayers  *int     `json:"maxPlayers"`
		TeamSize    *int     `json:"teamSize"`
		Image       *string  `json:"image"`
		Featured    *bool    `json:"featured"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid JSON"})
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "name cannot be empty"})
		}
		fields["name"] = *req.Name
		fields["slug"] = slug.Make(*req.Name)
	}
	if req.Game != nil {
		fields["game"] = *req.Game
	}
	if req.Platform != nil {
		fields["platform"] = *req.Platform
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Prize != nil {
		fields["prize"] = *req.Prize
	}
	if req.PrizePool != nil {
		if *req.PrizePool < 0 {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "prizePool must be non-negative"})
		}
		fields["prize_pool"] = *req.PrizePool
	}
	if req.EntryFee != nil {
		if *req.EntryFee < 0 {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "entryFee must be non-negative"})
		}
		fields["entry_fee"] = *req.EntryFee
	}
	if req.MaxPlayers != nil {
		if *req.MaxPlayers <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "maxPlayers must be a positive integer"})
		}
		fields["max_players"] = *req.MaxPlayers
	}
	if req.TeamSize != nil {
		if *req.TeamSize <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "teamSize must be a positive integer"})
		}
		fields["team_size"] = *req.TeamSize
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Featured != nil {
		fields["featured"] = *req.Featured
	}

	if len(fields) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "no updatable fields supplied"})
	}
	fields["updated_at"] = time.Now()

	if err := s.Store.UpdateTournament(c.Context(), c.Params("id"), fields); err != nil {
		if errors.Is(err, models.ErrTournamentNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "Tournament not found"})
		}
		log.Printf("❌ [TOURNAMENTS] update %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error updating tournament"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Tournament updated successfully"})
}

// DeleteTournament removes a tournament and its entire roster.
func (s *TournamentService) DeleteTournament(c *fiber.Ctx) error {
	if err := s.Store.DeleteTournament(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, models.ErrTournamentNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "Tournament not found"})
		}
		log.Printf("❌ [TOURNAMENTS] delete %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error deleting tournament"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Tournament deleted successfully"})
}

func (s *TournamentService) GetTournamentsByHost(c *fiber.Ctx) error {
	tournaments, err := s.Store.ListTournaments(c.Context(), storage.TournamentFilter{
		HostEmail: c.Params("email"),
	})
	if err != nil {
		log.Printf("❌ [TOURNAMENTS] host list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching host tournaments"})
	}
	return c.JSON(tournaments)
}

// GetAllTournamentsAdmin lists every tournament, pending included.
func (s *TournamentService) GetAllTournamentsAdmin(c *fiber.Ctx) error {
	tournaments, err := s.Store.ListTournaments(c.Context(), storage.TournamentFilter{})
	if err != nil {
		log.Printf("❌ [TOURNAMENTS] admin list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching tournaments"})
	}
	return c.JSON(tournaments)
}

// ChangeStatus is the lifecycle authority: any recognized status can be set on
// any tournament, but only by a caller holding the admin capability. No
// transition graph is enforced.
func (s *TournamentService) ChangeStatus(ctx context.Context, id, status, feedback string, identity models.Identity) error {
	if !identity.Capabilities.CanAdmin {
		return models.ErrForbidden
	}
	if !models.IsValidStatus(status) {
		return models.ErrInvalidStatus
	}
	return s.Store.UpdateTournamentStatus(ctx, id, status, feedback)
}

// UpdateTournamentStatus handles PATCH /tournaments/:id/status.
func (s *TournamentService) UpdateTournamentStatus(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	type Req struct {
		Status   string `json:"status"`
		Feedback string `json:"feedback"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid JSON"})
	}

	err := s.ChangeStatus(c.Context(), c.Params("id"), req.Status, req.Feedback, identity)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": true, "message": "Forbidden - Admin access required"})
	case errors.Is(err, models.ErrInvalidStatus):
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "Invalid status"})
	case errors.Is(err, models.ErrTournamentNotFound):
		return c.Status(404).JSON(fiber.Map{"error": true, "message": "Tournament not found"})
	default:
		log.Printf("❌ [TOURNAMENTS] status update %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error updating tournament status"})
	}

	log.Printf("✅ [TOURNAMENTS] %s set to %s by %s", c.Params("id"), req.Status, identity.Email)
	return c.JSON(fiber.Map{"success": true, "message": "Tournament " + req.Status + " successfully"})
}
