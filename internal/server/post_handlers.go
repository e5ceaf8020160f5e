package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /posts
// @Summary List posts
// @Description Newest first. limit=0 returns an empty list.
// @Tags posts
// @Produce json
// @Param skip query int false "Posts to skip" default(0)
// @Param limit query int false "Maximum posts to return" default(10)
// @Success 200 {array} models.Post
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := parsePagination(c)
	if err != nil {
		return models.Respond(c, err)
	}

	posts, err := s.postService.ListPosts(c.UserContext(), page.Skip, page.Limit)
	if err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(posts)
}

// CreatePost handles POST /posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePostRequest true "New post"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return models.Respond(c, err)
	}

	var req models.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return models.Respond(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), user, service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(post)
}

// GetPost handles GET /posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /posts/:id
// @Summary Update post
// @Description Only the author may update. Omitted or null fields are kept.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body models.UpdatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return models.Respond(c, err)
	}

	var req models.UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return models.Respond(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), user, c.Params("id"), service.UpdatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return models.Respond(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), user, c.Params("id")); err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(models.MessageResponse{Message: "Post deleted successfully"})
}
