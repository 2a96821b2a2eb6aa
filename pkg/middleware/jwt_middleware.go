package middleware

import (
	"context"
	"net/http"
	"strings"

	"customermind/internal/models/db_models"
	"customermind/internal/permissions"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "Role"
	ContextTier   = "Tier"
)

func JWTAuthMiddleware(tm *utils.TokenManager) gin.HandlerFunc {

	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		claims, err := tm.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		// Pass user information to the next handler
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextTier, claims.Tier)
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the
// ?token= query parameter for websocket upgrades.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

func RoleMiddleware(allowed ...db_models.Role) gin.HandlerFunc {

	return func(c *gin.Context) {
		role := db_models.Role(c.GetString(ContextRole))

		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, "Forbidden: insufficient permissions")
		c.Abort()
	}
}

// PermissionMiddleware gates a route on a role permission from the permission table.
func PermissionMiddleware(perm permissions.Permission) gin.HandlerFunc {

	return func(c *gin.Context) {
		role := db_models.Role(c.GetString(ContextRole))
		if !permissions.HasPermission(role, perm) {
			utils.RespondError(c, http.StatusForbidden, "Forbidden: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// TierResolver looks up the caller's current tier so upgrades apply
// before the token is reissued.
type TierResolver interface {
	CurrentTier(ctx context.Context, userID string) (db_models.Tier, error)
}

// FeatureMiddleware gates a route on the caller's subscription tier.
// Admin roles always pass. A nil resolver trusts the token claim.
func FeatureMiddleware(resolver TierResolver, feature permissions.Feature) gin.HandlerFunc {

	return func(c *gin.Context) {
		role := db_models.Role(c.GetString(ContextRole))
		tier := db_models.Tier(c.GetString(ContextTier))

		if resolver != nil && !role.IsAdmin() {
			current, err := resolver.CurrentTier(c.Request.Context(), c.GetString(ContextUserID))
			if err != nil {
				utils.HandleServiceError(c, err)
				c.Abort()
				return
			}
			tier = current
			c.Set(ContextTier, string(tier))
		}

		if !permissions.CanUseFeature(role, tier, feature) {
			_, msg := utils.StatusForError(utils.ErrFeatureNotInPlan)
			utils.RespondErrorWithData(c, http.StatusForbidden, gin.H{
				"feature":       feature,
				"current_tier":  tier,
				"upgrade_tiers": permissions.TiersWithFeature(feature),
			}, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}
