package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecg-viewer/auth"
)

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login exchanges reviewer credentials for a token, also set as an HTTP-only cookie.
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if !isNotFound(err) {
			h.logger.Error("Failed to load user", "username", req.Username, "error", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.logger.Warn("Failed login", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.jwt.GenerateToken(user.Username)
	if err != nil {
		h.logger.Error("Failed to sign token", "username", user.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	ttl := h.jwt.TTL()
	c.SetCookie(auth.CookieName, token, int(ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
