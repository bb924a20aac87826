package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"postshare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"postId", "post ID"},
		{"commentId", "comment ID"},
		{"notificationId", "notification ID"},
		{"actingUserId", "acting user ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/posts/:postId", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "postId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"valid", "/posts/42", fiber.StatusOK},
		{"zero", "/posts/0", fiber.StatusBadRequest},
		{"negative", "/posts/-3", fiber.StatusBadRequest},
		{"not a number", "/posts/abc", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusBadRequest {
				var body errorBody
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "Invalid post ID", body.Message)
				assert.Equal(t, models.CodeValidation, body.Code)
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", models.NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{"validation", models.NewValidationError("bad"), fiber.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{"internal", models.NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"timeout code", models.NewTimeoutError(errors.New("slow")), fiber.StatusGatewayTimeout},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), fiber.StatusGatewayTimeout},
		{"foreign", errors.New("unexpected"), fiber.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("load: %w", models.NewNotFoundError("User", 9)), fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, statusForError(tt.err))
		})
	}
}

func TestRespondError_HidesForeignErrorText(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("pq: connection refused to 10.0.0.5"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.NotContains(t, body.Message, "10.0.0.5")
}

func TestResolveActor(t *testing.T) {
	tests := []struct {
		name     string
		token    uint
		bodyID   uint
		expected uint
		code     string
	}{
		{"token only", 7, 0, 7, ""},
		{"token and matching body", 7, 7, 7, ""},
		{"token and other body", 7, 8, 0, models.CodeUnauthorized},
		{"body only", 0, 5, 5, ""},
		{"neither", 0, 0, 0, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got uint
			var gotErr error
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.token != 0 {
					c.Locals("userID", tt.token)
				}
				got, gotErr = resolveActor(c, tt.bodyID)
				return nil
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tt.expected, got)
			if tt.code == "" {
				assert.NoError(t, gotErr)
			} else {
				assert.Equal(t, tt.code, models.ErrorCode(gotErr))
			}
		})
	}
}

func TestFlexID(t *testing.T) {
	var body struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
		D flexID `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"34","c":null,"d":""}`), &body))
	assert.Equal(t, flexID(12), body.A)
	assert.Equal(t, flexID(34), body.B)
	assert.Equal(t, flexID(0), body.C)
	assert.Equal(t, flexID(0), body.D)

	var bad struct {
		A flexID `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a":"abc"}`), &bad))
}

func TestTagInput(t *testing.T) {
	var body struct {
		Tags tagInput `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":["go","web"]}`), &body))
	require.NotNil(t, body.Tags.raw)
	assert.Equal(t, "go,web", *body.Tags.raw)

	body.Tags = tagInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"a, b"}`), &body))
	require.NotNil(t, body.Tags.raw)
	assert.Equal(t, "a, b", *body.Tags.raw)

	body.Tags = tagInput{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.Nil(t, body.Tags.raw)
}
