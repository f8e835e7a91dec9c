package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-directory/internal/api/dto"
	"github.com/spec-kit/user-directory/internal/auth"
	"github.com/spec-kit/user-directory/internal/service"
	apperrors "github.com/spec-kit/user-directory/pkg/util"
)

// DirectoryHandler exposes the user directory endpoints.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// CheckAuth handles GET /api/users/is-auth. Reaching it at all means the
// verifier accepted the credential; the body just confirms it.
func (h *DirectoryHandler) CheckAuth(c *fiber.Ctx) error {
	return c.JSON(dto.AuthCheckResponse{
		Envelope:      dto.Envelope{Success: true},
		Authenticated: true,
	})
}

// Self handles GET /api/users/me.
func (h *DirectoryHandler) Self(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no principal")
	}

	summary, err := h.directory.GetSelf(c.UserContext(), principal.SubjectID)
	if err != nil {
		return err
	}

	return c.JSON(dto.SelfResponse{
		Envelope: dto.Envelope{Success: true},
		User:     *summary,
	})
}

// List handles GET /api/users.
func (h *DirectoryHandler) List(c *fiber.Ctx) error {
	profiles, err := h.directory.ListAll(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(dto.ListUsersResponse{
		Envelope: dto.Envelope{Success: true, Message: "all users retrieved successfully"},
		Users:    profiles,
	})
}

// Update handles PUT /api/users/:id.
func (h *DirectoryHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.directory.UpdateUserName(c.UserContext(), c.Params("id"), req.UserName); err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(dto.Envelope{
		Success: true,
		Message: "user updated successfully",
	})
}

// Delete handles DELETE /api/users/:id.
func (h *DirectoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.directory.DeleteByID(c.UserContext(), c.Params("id")); err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(dto.Envelope{
		Success: true,
		Message: "user deleted successfully",
	})
}

// Logout handles POST /api/auth/logout.
func (h *DirectoryHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no principal")
	}

	if err := h.directory.Logout(c.UserContext(), principal); err != nil {
		return err
	}

	return c.JSON(dto.Envelope{Success: true, Message: "logged out"})
}
