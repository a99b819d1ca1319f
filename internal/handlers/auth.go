package handlers

import (
	"errors"
	"net/http"

	"temp_regulator/internal/service"

	"github.com/gin-gonic/gin"
)

// OperatorCredentials is the body of both sign-up and sign-in.
type OperatorCredentials struct {
	Username string `json:"username" binding:"required,min=3,max=64" example:"shift-lead"`
	Password string `json:"password" binding:"required,min=8" example:"kiln-secret"`
}

const tokenType = "Bearer"

// @Summary      Register an operator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body   OperatorCredentials  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "id, username"
// @Failure      400  {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var in OperatorCredentials
	if !h.bindBody(c, &in) {
		return
	}

	id, err := h.services.SignUp(in.Username, in.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("operator_sign_up_failed", "username", in.Username, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not register operator"})
		return
	}
	if h.log != nil {
		h.log.Infow("operator_registered", "operator_id", id, "username", in.Username)
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "username": in.Username})
}

// @Summary      Issue an operator token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body   OperatorCredentials  true  "Credentials"
// @Success      200  {object}  map[string]string  "token, token_type"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var in OperatorCredentials
	if !h.bindBody(c, &in) {
		return
	}

	token, err := h.services.GenerateToken(in.Username, in.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": token, "token_type": tokenType})
	case errors.Is(err, service.ErrOperatorNotFound), errors.Is(err, service.ErrInvalidPassword):
		if h.log != nil {
			h.log.Infow("operator_sign_in_rejected", "username", in.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "could not issue token", "operator_sign_in_failed", err,
			"username", in.Username)
	}
}
