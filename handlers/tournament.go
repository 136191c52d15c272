package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tournament-hosting-system/middleware"
	"tournament-hosting-system/services"
	"tournament-hosting-system/storage"
)

// SetupTournamentRoutes wires /api/tournaments. Specific paths must come
// before the parameterized ones.
func SetupTournamentRoutes(app *fiber.App, svc *services.TournamentService, store storage.Store) {
	identity := middleware.Identity(store)

	t := app.Group("/api/tournaments")

	// 🔓 Public routes
	t.Get("/", svc.GetAllTournaments)
	t.Get("/featured", svc.GetFeaturedTournaments)

	// 🔒 Admin routes (before /:id)
	t.Get("/admin/all", identity, middleware.RequireAdmin(), svc.GetAllTournamentsAdmin)

	// 🔐 Host routes (before /:id)
	t.Get("/host/:email", identity, svc.GetTournamentsByHost)

	// Parameterized routes
	t.Get("/:id", svc.GetTournamentByID)
	t.Post("/:id/register", identity, svc.RegisterForTournament)
	t.Put("/:id", identity, middleware.RequireHost(), svc.UpdateTournament)
	t.Delete("/:id", identity, middleware.RequireHost(), svc.DeleteTournament)
	t.Patch("/:id/status", identity, middleware.RequireAdmin(), svc.UpdateTournamentStatus)

	t.Post("/", identity, middleware.RequireHost(), svc.CreateTournament)
}
