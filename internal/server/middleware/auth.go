// Package middleware holds the gin middlewares shared by every route group.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
)

const (
	identityKey = "identity"
	bearer      = "Bearer "

	headerTestMode = "X-Test-Mode"
	headerTestUID  = "X-Test-Uid"
	headerTestRole = "X-Test-Role"
	defaultTestUID = "test-owner-id"
)

// Claims is the token payload: the subject is the user id.
type Claims struct {
	Role models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret    []byte
	devBypass bool
	logger    *zap.Logger
}

// NewAuthenticator builds an Authenticator from the auth settings.
func NewAuthenticator(cfg config.AuthConfig, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{secret: []byte(cfg.JWTSecret), devBypass: cfg.DevBypass, logger: logger}
}

// Require rejects requests without a valid identity and stores it on the context.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.devBypass && c.GetHeader(headerTestMode) == "true" {
			identity := models.Identity{
				UID:  firstNonEmpty(c.GetHeader(headerTestUID), defaultTestUID),
				Role: models.Role(firstNonEmpty(c.GetHeader(headerTestRole), string(models.RoleOwner))),
			}
			if !identity.Role.Valid() {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unsupported role " + string(identity.Role)})
				return
			}
			c.Set(identityKey, identity)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		identity, err := a.Verify(strings.TrimPrefix(header, bearer))
		if err != nil {
			a.logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// Verify parses a token and returns the identity it carries.
func (a *Authenticator) Verify(token string) (models.Identity, error) {
	if len(a.secret) == 0 {
		return models.Identity{}, errors.New("token verification is not configured")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Identity{}, err
	}
	if claims.Subject == "" {
		return models.Identity{}, errors.New("token has no subject")
	}

	role := claims.Role
	if role == "" {
		role = models.RoleTenant
	}
	if !role.Valid() {
		return models.Identity{}, fmt.Errorf("unsupported role %q", role)
	}
	return models.Identity{UID: claims.Subject, Role: role}, nil
}

// Sign issues a token for uid valid for ttl. Used by tooling and tests.
func (a *Authenticator) Sign(uid string, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireRole rejects callers whose role is not listed. It must run after Require.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity(c)
		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(identity.Role) + " is not allowed here"})
	}
}

// Identity returns the caller stored by Require.
func Identity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
