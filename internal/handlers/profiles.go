package handlers

import (
	"net/http"

	"temp_regulator/internal/profile"

	"github.com/gin-gonic/gin"
)

// SelectProfileRequest picks the profile used in Work; slot 0 clears it.
type SelectProfileRequest struct {
	Slot *int `json:"slot" binding:"required" example:"3"`
}

// @Summary      List heating profiles
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, profiles"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/profiles [get]
// @Security     BearerAuth
func (h *Handler) getProfiles(c *gin.Context) {
	ps, err := h.services.Monitoring.Profiles(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load profiles", "profiles_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(ps), "profiles": ps})
}

// @Summary      Store a heating profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        body  body   profile.Profile  true  "Profile"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/profiles [put]
// @Security     BearerAuth
func (h *Handler) putProfile(c *gin.Context) {
	var p profile.Profile
	if !h.bindBody(c, &p) {
		return
	}
	if err := h.services.Control.StoreProfile(c.Request.Context(), p); err != nil {
		h.commandError(c, "profile_store_failed", err, "slot", p.Slot)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"slot": p.Slot})
}

// @Summary      Select the active profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        body  body   SelectProfileRequest  true  "Slot payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/profiles/select [post]
// @Security     BearerAuth
func (h *Handler) selectProfile(c *gin.Context) {
	var req SelectProfileRequest
	if !h.bindBody(c, &req) {
		return
	}
	if err := h.services.Control.SelectProfile(c.Request.Context(), *req.Slot); err != nil {
		h.commandError(c, "profile_select_failed", err, "slot", *req.Slot)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"slot": *req.Slot})
}
