// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// basicAuth guards the admin area. A password starting with "$2" is treated
// as a bcrypt hash.
func basicAuth(user, password string) gin.HandlerFunc {
	if !strings.HasPrefix(password, "$2") {
		return gin.BasicAuth(gin.Accounts{user: password})
	}
	hash := []byte(password)
	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
			bcrypt.CompareHashAndPassword(hash, []byte(p)) != nil {
			c.Header("WWW-Authenticate", `Basic realm="Authorization Required"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(gin.AuthUserKey, u)
		c.Next()
	}
}
