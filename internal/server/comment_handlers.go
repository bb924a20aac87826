package server

import (
	"postshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /api/post/:id/comment
// @Summary Comment on a post
// @Description Returns the post's full comment list with authors populated
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{user=int,text=string} true "Comment"
// @Success 201 {array} models.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/comment [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		User flexID `json:"user" form:"user"`
		Text string `json:"text" form:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	actorID, err := resolveActor(c, uint(req.User))
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	outcome, err := s.engagement.AddComment(ctx, postID, actorID, req.Text)
	if err != nil {
		return respondError(c, err)
	}

	s.pushEvent(ctx, outcome.OwnerID, actorID, models.NotificationComment, &postID)
	return c.Status(fiber.StatusCreated).JSON(outcome.Comments)
}

// ToggleCommentLike handles POST /api/post/:postId/comment/:commentId/like
// @Summary Like or unlike a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param postId path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param request body object{userId=int} true "Acting user"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{postId}/comment/{commentId}/like [post]
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	commentID := c.Params("commentId")

	actorID, err := s.bodyActor(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := s.engagement.ToggleCommentLike(ctx, postID, commentID, actorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
