package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"postshare/internal/models"
	"postshare/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost existing password hashes were created with.
const bcryptCost = 12

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}
	for _, err := range []error{
		validation.ValidateUsername(req.Username),
		validation.ValidateEmail(strings.TrimSpace(req.Email)),
		validation.ValidatePassword(req.Password),
	} {
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	email := validation.NormalizeEmail(req.Email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return respondError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email already registered"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(req.Email))
	if err != nil {
		return respondError(c, err)
	}
	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid credentials"))
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(AuthResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// generateToken creates an HS256 session token whose subject is the user id.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	ttl := s.config.JWTTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    s.config.JWTIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	if s.config.JWTAudience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.JWTAudience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
