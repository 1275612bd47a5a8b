package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kotobalab/tsuyaku/internal/repository"
)

const contextKeyUser = "user"

// Identify resolves the requesting user from the identity headers set by
// the upstream auth gateway. OAuth itself terminates there; this service
// only ever sees the resolved identity. The user row is upserted on every
// request, which creates it on first login and refreshes last_signed_in
// on later ones.
func (s *Server) Identify(c *gin.Context) {
	openID := c.GetHeader("X-User-Openid")
	if openID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var name, email *string
	if v := c.GetHeader("X-User-Name"); v != "" {
		name = &v
	}
	if v := c.GetHeader("X-User-Email"); v != "" {
		email = &v
	}

	user, err := s.repo.UpsertUser(c.Request.Context(), repository.UpsertUserInput{
		OpenID:       openID,
		Name:         name,
		Email:        email,
		LastSignedIn: time.Now(),
	})
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}

	c.Set(contextKeyUser, user)
	c.Next()
}

func currentUser(c *gin.Context) *repository.User {
	return c.MustGet(contextKeyUser).(*repository.User)
}
