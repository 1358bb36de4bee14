package controllers

import (
	"github.com/gin-gonic/gin"

	"relief-claims-api/apperrors"
	"relief-claims-api/middleware"
	"relief-claims-api/models"
)

func currentIdentity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, apperrors.Forbidden("no authenticated officer"))
		return models.Identity{}, false
	}
	return id, true
}
