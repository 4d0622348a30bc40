package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/response"
)

// RequireRole lets the request through only when the token's role is one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if slices.Contains(roles, claims.Role) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrStaffAccessOnly)
	}
}

// RequireStaff admits admins and teachers.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin, model.RoleTeacher)
}
