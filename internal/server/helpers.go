package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"postshare/internal/middleware"
	"postshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// requestContext bounds a handler's store calls and tags them with the authenticated user.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := c.UserContext()
	if uid, ok := tokenUserID(c); ok {
		ctx = middleware.WithUserID(ctx, uid)
	}
	return context.WithTimeout(ctx, handlerTimeout)
}

func tokenUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}

// resolveActor decides who performs a mutation. A verified token wins and a body identity that
// disagrees with it is rejected; without a token the body identity is trusted.
func resolveActor(c *fiber.Ctx, bodyID uint) (uint, error) {
	if uid, ok := tokenUserID(c); ok {
		if bodyID != 0 && bodyID != uid {
			return 0, models.NewUnauthorizedError("Acting user does not match token")
		}
		return uid, nil
	}
	if bodyID == 0 {
		return 0, models.NewValidationError("User ID is required")
	}
	return bodyID, nil
}

// authorizeSubject rejects a token holder acting on another user's resource.
func authorizeSubject(c *fiber.Ctx, ownerID uint) error {
	if uid, ok := tokenUserID(c); ok && uid != ownerID {
		return models.NewUnauthorizedError("You can only modify your own resources")
	}
	return nil
}

// statusForError maps an error's AppError code to its HTTP status.
func statusForError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Foreign errors are wrapped so their text
// never reaches the client.
func respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if models.ErrorCode(err) == "" {
		if status == fiber.StatusGatewayTimeout {
			err = models.NewTimeoutError(err)
		} else {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
}

// flexID decodes an identifier sent either as a JSON number or as a numeric string.
type flexID uint

func (f *flexID) UnmarshalJSON(data []byte) error {
	return f.UnmarshalText(bytes.Trim(data, `"`))
}

// UnmarshalText lets form decoding share the JSON rules.
func (f *flexID) UnmarshalText(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", data)
	}
	*f = flexID(v)
	return nil
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// formValue returns a multipart text field, or nil when the field was not sent.
func formValue(c *fiber.Ctx, name string) (*string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil, nil
	}
	v := values[0]
	return &v, nil
}

// readUpload returns the bytes of the named multipart file, or nil when none was sent.
// Reads stop one byte past limit so oversize uploads are detected without buffering them whole.
func readUpload(c *fiber.Ctx, name string, limit int64) ([]byte, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	files := form.File[name]
	if len(files) == 0 {
		return nil, nil
	}
	if files[0].Size > limit {
		return nil, models.NewValidationError("Image too large")
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if int64(len(data)) > limit {
		return nil, models.NewValidationError("Image too large")
	}
	return data, nil
}

func (s *Server) uploadLimit() int64 {
	mb := s.config.ImageMaxUploadSizeMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) * 1024 * 1024
}
