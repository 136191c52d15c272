package services

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tournament-hosting-system/models"
	"tournament-hosting-system/storage"
)

type UserService struct {
	Store storage.Store
}

func NewUserService(store storage.Store) *UserService {
	return &UserService{Store: store}
}

// CreateUser provisions an account after external sign-up. Duplicate emails
// return 409 so the frontend can treat re-login as a no-op.
func (s *UserService) CreateUser(c *fiber.Ctx) error {
	type Req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Photo string `json:"photo"`
		Role  string `json:"role"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid JSON"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "valid email is required"})
	}

	role := req.Role
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleAdmin, models.RoleHost, models.RoleInstructor, models.RoleStudent:
	default:
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid role"})
	}

	user := &models.User{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
		Role:  role,
	}
	if err := s.Store.CreateUser(c.Context(), user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			return c.Status(409).JSON(fiber.Map{"error": true, "message": "User already exists"})
		}
		log.Printf("❌ [USERS] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error creating user"})
	}
	return c.Status(201).JSON(user)
}

func (s *UserService) GetAllUsers(c *fiber.Ctx) error {
	users, err := s.Store.ListUsers(c.Context())
	if err != nil {
		log.Printf("❌ [USERS] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching users"})
	}
	return c.JSON(users)
}

func (s *UserService) GetUserByID(c *fiber.Ctx) error {
	user, err := s.Store.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "User not found"})
		}
		log.Printf("❌ [USERS] fetch %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching user"})
	}
	return c.JSON(user)
}

func (s *UserService) GetUserByEmail(c *fiber.Ctx) error {
	user, err := s.Store.GetUserByEmail(c.Context(), c.Params("email"))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "User not found"})
		}
		log.Printf("❌ [USERS] fetch by email failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error fetching user"})
	}
	return c.JSON(user)
}

// CheckEmail reports whether an account already exists for the given email.
func (s *UserService) CheckEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "Email is required"})
	}
	_, err := s.Store.GetUserByEmail(c.Context(), email)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"exists": true})
	case errors.Is(err, models.ErrUserNotFound):
		return c.JSON(fiber.Map{"exists": false})
	default:
		log.Printf("❌ [USERS] check email failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error checking email"})
	}
}

// SetAdmin grants the admin role to an existing account.
func (s *UserService) SetAdmin(c *fiber.Ctx) error {
	type Req struct {
		Email string `json:"email"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "email is required"})
	}

	if err := s.Store.UpdateUserRole(c.Context(), req.Email, models.RoleAdmin); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "User not found"})
		}
		log.Printf("❌ [USERS] set-admin failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error updating user role"})
	}
	log.Printf("✅ [USERS] %s promoted to admin", req.Email)
	return c.JSON(fiber.Map{"success": true, "message": "User promoted to admin"})
}

func (s *UserService) UpdateUser(c *fiber.Ctx) error {
	type Req struct {
		Name  *string `json:"name"`
		Photo *string `json:"photo"`
		Role  *string `json:"role"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid JSON"})
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Photo != nil {
		fields["photo"] = *req.Photo
	}
	if req.Role != nil {
		switch *req.Role {
		case models.RoleAdmin, models.RoleHost, models.RoleInstructor, models.RoleStudent:
			fields["role"] = *req.Role
		default:
			return c.Status(400).JSON(fiber.Map{"error": true, "message": "invalid role"})
		}
	}
	if len(fields) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": true, "message": "no updatable fields supplied"})
	}

	if err := s.Store.UpdateUser(c.Context(), c.Params("id"), fields); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "User not found"})
		}
		log.Printf("❌ [USERS] update %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error updating user"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "User updated successfully"})
}

func (s *UserService) DeleteUser(c *fiber.Ctx) error {
	if err := s.Store.DeleteUser(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "User not found"})
		}
		log.Printf("❌ [USERS] delete %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": true, "message": "Error deleting user"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "User deleted successfully"})
}
