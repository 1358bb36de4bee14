package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-claims-api/apperrors"
	"relief-claims-api/services"
)

type AuthController struct {
	officers *services.OfficerService
}

func NewAuthController(officers *services.OfficerService) *AuthController {
	return &AuthController{officers: officers}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles officer authentication
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	res, err := a.officers.Login(c.Request.Context(), req.Email, req.Password)
	if apperrors.KindOf(err) == apperrors.KindForbidden {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password", "code": "unauthorized"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   res.Token,
		"officer": res.Officer,
		"message": "Login successful",
	})
}

// GetProfile returns the current officer profile
func (a *AuthController) GetProfile(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	officer, err := a.officers.Profile(c.Request.Context(), id.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"officer": officer})
}

func (a *AuthController) UpdateProfile(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req services.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid profile payload")
		return
	}

	officer, err := a.officers.UpdateProfile(c.Request.Context(), id.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"officer": officer, "message": "Profile updated"})
}
