package http

import (
	"net/http"
	"strings"

	"cravecart/internal/domain"
	"cravecart/internal/identity"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// requireActor resolves the bearer token to an actor. EventSource clients
// cannot set headers, so access_token in the query is accepted as well.
func requireActor(identities identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || token == c.GetHeader("Authorization") {
			token = c.Query("access_token")
		}
		if token == "" {
			sendErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := identities.Resolve(token)
		if err != nil {
			sendErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}
		actor, err := id.Actor()
		if err != nil {
			sendErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	return c.MustGet(actorKey).(domain.Actor)
}
