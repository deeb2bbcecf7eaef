package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClubIDKey is the context key the club id is stored under.
const ClubIDKey = "club_id"

// ClubContext validates the :club path parameter and stores it in the
// request context.
func ClubContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		clubID := c.Param("club")
		if clubID == "" {
			ErrorWithMessage(c, http.StatusBadRequest, "club id is required")
			c.Abort()
			return
		}
		c.Set(ClubIDKey, clubID)
		c.Next()
	}
}

// GetClubID returns the club id set by ClubContext.
func GetClubID(c *gin.Context) string {
	return c.GetString(ClubIDKey)
}
