package Controllers

import (
	"errors"
	"net/http"

	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/Pipeline"
	"github.com/gurunathasmb/Major-project/Storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	Files    *Storage.Store
	Analyzer *Pipeline.Pipeline
)

// Configure hands the controllers their file store and analysis pipeline.
func Configure(store *Storage.Store, pipeline *Pipeline.Pipeline) {
	Files = store
	Analyzer = pipeline
}

// getScope returns the visibility scope set by Middleware.SetDoctorScope.
func getScope(c *gin.Context) Models.Scope {
	if scope, ok := c.Get("scope"); ok {
		if s, ok := scope.(Models.Scope); ok {
			return s
		}
	}
	// No scope means no middleware ran; match nothing.
	return Models.DoctorScope(0)
}

func currentUser(c *gin.Context) Models.User {
	user, _ := c.Get("user")
	u, _ := user.(Models.User)
	return u
}

func currentDoctor(c *gin.Context) (Models.Doctor, bool) {
	doctor, ok := c.Get("doctor")
	if !ok {
		return Models.Doctor{}, false
	}
	d, ok := doctor.(Models.Doctor)
	return d, ok
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, Models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, Models.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, Models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
