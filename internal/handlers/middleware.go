package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const operatorCtxKey = "operatorId"

// bearerToken extracts the token from an Authorization header. The second
// result is the rejection message when the header is unusable.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing Authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, tokenType) || token == "" {
		return "", "invalid Authorization header format"
	}
	return token, ""
}

// operatorIdMiddleware resolves the bearer token to an operator id.
func (h *Handler) operatorIdMiddleware(c *gin.Context) {
	token, reject := bearerToken(c.GetHeader("Authorization"))
	if reject != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reject})
		return
	}

	id, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(operatorCtxKey, id)
	c.Next()
}

// operatorID is the id set by operatorIdMiddleware, 0 when absent.
func operatorID(c *gin.Context) int {
	return c.GetInt(operatorCtxKey)
}
