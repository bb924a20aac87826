package server

import (
	"context"
	"encoding/json"
	"strings"

	"postshare/internal/models"
	"postshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// tagInput accepts tags as the comma-separated string existing clients send or as a JSON array.
type tagInput struct {
	raw *string
}

func (t *tagInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		joined := strings.Join(list, ",")
		t.raw = &joined
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.raw = &s
	return nil
}

// ListPosts handles GET /api/post/getPosts
// @Summary List posts
// @Description Newest first, optionally filtered by category and a literal search term
// @Tags posts
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param category query string false "Category, or all"
// @Param search query string false "Case-insensitive search over title, description and tags"
// @Success 200 {object} models.PostPage
// @Router /post/getPosts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := s.posts.ListPosts(ctx, service.ListPostsInput{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", service.DefaultPageSize),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/post/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/post/createPost
// Accepts JSON or a multipart form with an optional "image" file.
// @Summary Create a post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Param request body object{user=int,title=string,description=string,category=string,tags=string} true "Post"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/createPost [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		User        flexID   `json:"user" form:"user"`
		Title       string   `json:"title" form:"title"`
		Description string   `json:"description" form:"description"`
		Category    string   `json:"category" form:"category"`
		Tags        tagInput `json:"tags" form:"-"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	in := service.CreatePostInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Tags.raw != nil {
		in.Tags = *req.Tags.raw
	}
	if isMultipart(c) {
		in.Tags = c.FormValue("tags")
		image, err := readUpload(c, "image", s.uploadLimit())
		if err != nil {
			return respondError(c, err)
		}
		in.Image = image
	}

	actorID, err := resolveActor(c, uint(req.User))
	if err != nil {
		return respondError(c, err)
	}
	in.UserID = actorID

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.engagement.CreatePost(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/post/updatePost/:id
// Only the fields present in the body change.
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{title=string,description=string,category=string,tags=string} true "Fields to change"
// @Success 200 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/updatePost/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Tags        tagInput `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.authorizePostOwner(ctx, c, id); err != nil {
		return respondError(c, err)
	}

	post, err := s.engagement.UpdatePost(ctx, id, service.UpdatePostInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags.raw,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/post/deletePost/:id
// @Summary Delete a post
// @Description Releases the post image, then removes the post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{msg=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /post/deletePost/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.authorizePostOwner(ctx, c, id); err != nil {
		return respondError(c, err)
	}

	if err := s.engagement.DeletePost(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Post deleted successfully"})
}

// ToggleLike handles POST /api/post/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{userId=int} true "Acting user"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	actorID, err := s.bodyActor(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	outcome, err := s.engagement.ToggleLike(ctx, id, actorID)
	if err != nil {
		return respondError(c, err)
	}

	if outcome.Result.IsLiked {
		s.pushEvent(ctx, outcome.OwnerID, actorID, models.NotificationLike, &id)
	}
	return c.JSON(outcome.Result)
}

// bodyActor resolves the actor from a {"userId": ...} body.
func (s *Server) bodyActor(c *fiber.Ctx) (uint, error) {
	var req struct {
		UserID flexID `json:"userId" form:"userId"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return 0, models.NewValidationError("Invalid request body")
		}
	}
	return resolveActor(c, uint(req.UserID))
}

// authorizePostOwner rejects a token holder editing someone else's post. Anonymous requests
// pass; REQUIRE_TOKEN closes that path at the middleware.
func (s *Server) authorizePostOwner(ctx context.Context, c *fiber.Ctx, postID uint) error {
	if _, ok := tokenUserID(c); !ok {
		return nil
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	return authorizeSubject(c, post.UserID)
}
