package handlers

import (
	"log"

	"tokoshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler issues bearer tokens for local development. Identity
// verification happens upstream, so it is only mounted when
// AUTH_DEV_TOKENS is enabled.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

type tokenRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Role   string `json:"role" validate:"omitempty,oneof=customer admin"`
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/token", h.HandleIssueToken)
}

// HandleIssueToken signs a token for the requested principal.
func (h *AuthHandler) HandleIssueToken(c *fiber.Ctx) error {
	var req tokenRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}

	token, err := h.authService.IssueToken(req.UserID, req.Role)
	if err != nil {
		log.Printf("Error issuing token for %s: %v", req.UserID, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Token issued",
		"token":   token,
	})
}
