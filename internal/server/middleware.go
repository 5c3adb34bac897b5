package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderActor carries the identity of the person performing a ledger
	// operation. Written into every audit entry.
	HeaderActor     = "X-Actor"
	HeaderRequestID = "X-Request-ID"

	defaultActor = "unknown"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func actorFrom(c *gin.Context) string {
	actor := strings.TrimSpace(c.GetHeader(HeaderActor))
	if actor == "" {
		return defaultActor
	}
	return actor
}
