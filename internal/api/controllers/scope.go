package controllers

import (
	"net/http"
	"strconv"

	"customermind/internal/models/db_models"
	"customermind/internal/services"
	"customermind/pkg/middleware"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

// tenantFrom builds the caller's scope from the values set by the auth middleware.
// The tier is the one resolved by FeatureMiddleware when it ran.
func tenantFrom(c *gin.Context) services.Tenant {
	return services.Tenant{
		ID:   c.GetString(middleware.ContextUserID),
		Role: db_models.Role(c.GetString(middleware.ContextRole)),
		Tier: db_models.Tier(c.GetString(middleware.ContextTier)),
	}
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

func userRole(c *gin.Context) db_models.Role {
	return db_models.Role(c.GetString(middleware.ContextRole))
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

func bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return false
	}
	return true
}

func queryInt64(c *gin.Context, key string, def int64) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
