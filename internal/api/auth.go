package api

import (
	"net/http"

	"placement-portal/internal/auth"
	"placement-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	token, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		Token: token,
		Email: auth.NormalizeEmail(req.Email),
	})
}

// Logout ends the session and discards its view.
func (h *Handler) Logout(c *gin.Context) {
	token := c.GetString(ctxToken)
	if err := h.svc.Auth.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err, "Logout failed")
		return
	}
	h.registry.Drop(token)

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"email": c.GetString(ctxEmail)})
}
