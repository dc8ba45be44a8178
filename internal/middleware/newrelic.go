package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicActor tags the current New Relic transaction with the caller.
// It must run after nrgin.Middleware and Authenticate.
func NewRelicActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn != nil {
			if actor, ok := ActorFromContext(c); ok {
				txn.AddAttribute("actor.id", actor.ID)
				txn.AddAttribute("actor.role", string(actor.Role))
			}
		}

		c.Next()

		if txn != nil {
			for _, err := range c.Errors {
				txn.NoticeError(err.Err)
			}
		}
	}
}
