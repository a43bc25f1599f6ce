package Middleware

import (
	"errors"
	"net/http"

	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/Utils/Token"

	"github.com/gin-gonic/gin"
)

func JwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := Token.TokenValid(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized Token Invalid"})
			return
		}
		c.Next()
	}
}

// SetDoctorScope loads the caller and stores "user", "role" and "scope" in
// the context; doctors also get "doctor". Deactivated accounts are rejected
// even while their token is still valid.
func SetDoctorScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := Token.ExtractTokenID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := Models.GetUserByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account deactivated"})
			return
		}

		c.Set("user", user)
		c.Set("role", user.Role)

		if user.Role == Models.RoleAdmin {
			c.Set("scope", Models.AdminScope())
			c.Next()
			return
		}

		doctor, err := Models.GetDoctorByUserID(user.ID)
		if errors.Is(err, Models.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No doctor profile for this account"})
			return
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !doctor.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account deactivated"})
			return
		}
		c.Set("doctor", doctor)
		c.Set("scope", Models.DoctorScope(doctor.ID))
		c.Next()
	}
}

// RequireRole must run after SetDoctorScope.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": Models.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}
