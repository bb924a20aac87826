// Package middleware provides authentication, logging, tracing and rate limiting middleware.
package middleware

import (
	"errors"
	"strconv"
	"strings"

	"postshare/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingToken  = errors.New("Authorization header required")
	errHeaderFormat  = errors.New("Invalid authorization header format")
	errInvalidToken  = errors.New("Invalid or expired token")
	errInvalidClaims = errors.New("Invalid token claims")
)

// ParseToken validates a signed session token and returns the user id carried in its subject.
func ParseToken(tokenString string) (uint, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errInvalidClaims
	}

	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, errInvalidClaims
	}
	return uint(id), nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errHeaderFormat
	}
	return parts[1], nil
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": err.Error(),
		"code":    "UNAUTHORIZED",
	})
}

// AuthRequired rejects requests without a valid bearer token and stores the user id in c.Locals("userID").
func AuthRequired(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return unauthorized(c, err)
	}
	userID, err := ParseToken(raw)
	if err != nil {
		return unauthorized(c, err)
	}
	c.Locals("userID", userID)
	return c.Next()
}

// OptionalAuth resolves the user from a bearer token when one is sent. A malformed or expired
// token is still rejected; a missing header lets the request through anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Next()
	}
	return AuthRequired(c)
}

// MutationAuth enforces a token when REQUIRE_TOKEN is set and otherwise behaves like OptionalAuth.
func MutationAuth(c *fiber.Ctx) error {
	if cfg != nil && cfg.RequireToken {
		return AuthRequired(c)
	}
	return OptionalAuth(c)
}

// WebSocketAuth accepts the token from the "token" query parameter or the Authorization header.
// Without either, the upgrade handler falls back to the userId query parameter unless tokens are required.
func WebSocketAuth(c *fiber.Ctx) error {
	raw := c.Query("token")
	if raw == "" {
		if c.Get("Authorization") == "" {
			if cfg != nil && cfg.RequireToken {
				return unauthorized(c, errors.New("Token required"))
			}
			return c.Next()
		}
		var err error
		if raw, err = bearerToken(c); err != nil {
			return unauthorized(c, err)
		}
	}

	userID, err := ParseToken(raw)
	if err != nil {
		return unauthorized(c, err)
	}
	c.Locals("userID", userID)
	return c.Next()
}
