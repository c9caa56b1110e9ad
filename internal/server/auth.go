package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	obsctx "github.com/interiohub/interio/internal/observability/context"
)

const contextAccountIDKey = "account_id"

// Claims are the bearer token claims; the account id is the subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthRequired verifies an HS256 bearer token and scopes the request to its
// subject. Token issuance happens elsewhere.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		accountID, err := s.parseToken(parts[1])
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextAccountIDKey, accountID)
		c.Request = c.Request.WithContext(obsctx.WithAccountID(c.Request.Context(), accountID))
		c.Next()
	}
}

func (s *Server) parseToken(raw string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return subject, nil
}

func accountID(c *gin.Context) string {
	return obsctx.AccountIDFromGin(c)
}
