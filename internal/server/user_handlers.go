package server

import (
	"postshare/internal/models"
	"postshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/auth/users
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Router /auth/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetProfile handles GET /api/auth/profile/:id
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/profile/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.users.GetProfile(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /api/auth/profile/:id
// Accepts JSON or a multipart form with an optional "avatar" file.
// @Summary Update a user profile
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/profile/{id} [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := authorizeSubject(c, id); err != nil {
		return respondError(c, err)
	}

	in := service.UpdateProfileInput{UserID: id}
	if isMultipart(c) {
		if in.Username, err = formValue(c, "username"); err != nil {
			return invalidBody(c)
		}
		if in.Bio, err = formValue(c, "bio"); err != nil {
			return invalidBody(c)
		}
		if in.Avatar, err = readUpload(c, "avatar", s.uploadLimit()); err != nil {
			return respondError(c, err)
		}
	} else {
		var req struct {
			Username *string `json:"username"`
			Bio      *string `json:"bio"`
		}
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		in.Username, in.Bio = req.Username, req.Bio
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.users.UpdateProfile(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ToggleFollow handles POST /api/auth/follow/:id
// @Summary Follow or unfollow a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User to follow"
// @Param request body object{actingUserId=int} true "Acting user (alias userId)"
// @Success 200 {object} models.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/follow/{id} [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ActingUserID flexID `json:"actingUserId"`
		UserID       flexID `json:"userId"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}
	bodyID := uint(req.ActingUserID)
	if bodyID == 0 {
		bodyID = uint(req.UserID)
	}

	actorID, err := resolveActor(c, bodyID)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := s.graph.ToggleFollow(ctx, targetID, actorID)
	if err != nil {
		return respondError(c, err)
	}

	if result.IsFollowing {
		s.pushEvent(ctx, targetID, actorID, models.NotificationFollow, nil)
	}
	return c.JSON(result)
}

// GetNotifications handles GET /api/auth/notifications/:id
// @Summary Notification inbox
// @Tags notifications
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Inbox
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/notifications/{id} [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := authorizeSubject(c, id); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	inbox, err := s.inbox.GetNotifications(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inbox)
}

// MarkNotificationRead handles PUT /api/auth/notifications/:id
// @Summary Mark one notification read
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{notificationId=string} true "Notification to mark"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/notifications/{id} [put]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := authorizeSubject(c, id); err != nil {
		return respondError(c, err)
	}

	var req struct {
		NotificationID string `json:"notificationId" form:"notificationId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.inbox.MarkRead(ctx, id, req.NotificationID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}
