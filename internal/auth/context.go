// Package auth carries the shopper identity resolved by the JWT
// middleware. The cart session reads it to choose between the server
// round trip and the guest path.
package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/pkg/middleware"
)

type Context struct {
	UserID        string
	Authenticated bool
}

func Guest() Context { return Context{} }

func User(id string) Context {
	return Context{UserID: id, Authenticated: true}
}

// FromGin reads the identity the auth middleware stored on the request.
func FromGin(c *gin.Context) Context {
	authed, _ := c.Get(middleware.AuthenticatedKey)
	if ok, _ := authed.(bool); !ok {
		return Guest()
	}
	userID, _ := c.Get(middleware.UserIDKey)
	id, _ := userID.(string)
	return User(id)
}
