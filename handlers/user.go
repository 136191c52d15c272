package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tournament-hosting-system/middleware"
	"tournament-hosting-system/services"
	"tournament-hosting-system/storage"
)

// SetupUserRoutes wires /api/users.
func SetupUserRoutes(app *fiber.App, svc *services.UserService, store storage.Store) {
	identity := middleware.Identity(store)

	u := app.Group("/api/users")

	// 🔓 Account provisioning happens right after external sign-up, before the
	// caller has an identity here.
	u.Post("/", svc.CreateUser)
	u.Get("/check-email", svc.CheckEmail)

	// 🔒 Admin routes
	u.Get("/", identity, middleware.RequireAdmin(), svc.GetAllUsers)
	u.Post("/set-admin", identity, middleware.RequireAdmin(), svc.SetAdmin)

	// Parameterized routes
	u.Get("/email/:email", identity, svc.GetUserByEmail)
	u.Get("/:id", identity, svc.GetUserByID)
	u.Put("/:id", identity, middleware.RequireAdmin(), svc.UpdateUser)
	u.Delete("/:id", identity, middleware.RequireAdmin(), svc.DeleteUser)
}
