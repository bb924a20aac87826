package server

import (
	"net/http"
	"testing"
	"time"

	"postshare/internal/config"
	"postshare/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authBody struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID       uint   `json:"_id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	var body authBody
	resp := h.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": "  ada ",
		"email":    "Ada@Example.com ",
		"password": "secret1",
	}, "", &body)

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", body.Message)
	assert.Equal(t, "ada", body.User.Username)
	assert.Equal(t, "ada@example.com", body.User.Email)
	assert.Empty(t, body.User.Password)

	uid, err := middleware.ParseToken(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.User.ID, uid)
}

func TestRegister_Rejections(t *testing.T) {
	h := newHarness(t)

	var first authBody
	resp := h.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": "ada", "email": "ada@example.com", "password": "secret1",
	}, "", &first)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	tests := []struct {
		name    string
		body    fiber.Map
		message string
	}{
		{
			name:    "missing fields",
			body:    fiber.Map{"username": "bob", "email": ""},
			message: "Username, email, and password are required",
		},
		{
			name:    "duplicate email differs only in case",
			body:    fiber.Map{"username": "other", "email": "ADA@example.com", "password": "secret1"},
			message: "Email already registered",
		},
		{
			name:    "short password",
			body:    fiber.Map{"username": "bob", "email": "bob@example.com", "password": "123"},
			message: "password must be at least 6 characters long",
		},
		{
			name: "malformed email",
			body: fiber.Map{"username": "bob", "email": "bob-at-example", "password": "secret1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			resp := h.do(t, http.MethodPost, "/api/auth/register", tt.body, "", &body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	var registered authBody
	resp := h.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": "ada", "email": "ada@example.com", "password": "secret1",
	}, "", &registered)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	t.Run("success", func(t *testing.T) {
		var body authBody
		resp := h.do(t, http.MethodPost, "/api/auth/login", fiber.Map{
			"email": "ADA@example.com", "password": "secret1",
		}, "", &body)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "Login successful", body.Message)
		assert.Equal(t, registered.User.ID, body.User.ID)
		assert.NotEmpty(t, body.Token)
	})

	for name, req := range map[string]fiber.Map{
		"wrong password": {"email": "ada@example.com", "password": "nope123"},
		"unknown email":  {"email": "nobody@example.com", "password": "secret1"},
	} {
		t.Run(name, func(t *testing.T) {
			var body errorBody
			resp := h.do(t, http.MethodPost, "/api/auth/login", req, "", &body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Invalid credentials", body.Message)
		})
	}

	t.Run("missing password", func(t *testing.T) {
		var body errorBody
		resp := h.do(t, http.MethodPost, "/api/auth/login", fiber.Map{"email": "ada@example.com"}, "", &body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email and password are required", body.Message)
	})
}

func TestGenerateToken_Claims(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, 42)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "postshare-api", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"postshare-client"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	s := &Server{config: &config.Config{}}
	_, err := s.generateToken(1)
	assert.Error(t, err)
}

func TestMutationAuth_RequireToken(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.RequireToken = true })
	owner := h.user(t, "ada")

	resp := h.do(t, http.MethodPost, "/api/post/createPost", fiber.Map{
		"user": owner.ID, "title": "anonymous",
	}, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/post/createPost", fiber.Map{"title": "signed"}, h.token(t, owner.ID), nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Reads stay public.
	resp = h.do(t, http.MethodGet, "/api/post/getPosts", nil, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMutationAuth_RejectsBadToken(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "ada")

	resp := h.do(t, http.MethodPost, "/api/post/createPost", fiber.Map{
		"user": owner.ID, "title": "forged",
	}, "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
