package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizhub/internal/service"
)

// ProfileHandler serves the authenticated user's profile, subscription
// and bookmark endpoints.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMyProfile handles GET /api/users/me. Viewing the profile also
// applies the daily token grant.
func (h *ProfileHandler) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	profile, err := h.profileService.GetProfile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// UpgradeSubscription handles POST /api/users/me/subscription/upgrade
func (h *ProfileHandler) UpgradeSubscription(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	resp, err := h.profileService.UpgradeSubscription(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DowngradeSubscription handles POST /api/users/me/subscription/downgrade
func (h *ProfileHandler) DowngradeSubscription(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	resp, err := h.profileService.DowngradeSubscription(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ToggleBookmark handles POST /api/questions/:id/bookmark
func (h *ProfileHandler) ToggleBookmark(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	resp, err := h.profileService.ToggleBookmark(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListBookmarks handles GET /api/users/me/bookmarks
func (h *ProfileHandler) ListBookmarks(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookmarks, err := h.profileService.ListBookmarks(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(bookmarks)
}
