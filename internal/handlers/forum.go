package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
)

// ListPosts returns the latest forum posts
func (h *Handler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.db.ListForumPosts(c.Context())
	if err != nil {
		return h.internalError(c, "failed to list posts", err)
	}
	return Success(c, posts)
}

// CreatePost starts a new forum thread
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return Error(c, fiber.StatusBadRequest, "title and body are required")
	}

	post, err := h.db.CreateForumPost(c.Context(), userID, title, body)
	if err != nil {
		return h.internalError(c, "failed to create post", err)
	}

	return Created(c, post)
}

// GetPost returns a post with its comments
func (h *Handler) GetPost(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid post id")
	}

	post, err := h.db.GetForumPost(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrPostNotFound) {
			return Error(c, fiber.StatusNotFound, "post not found")
		}
		return h.internalError(c, "failed to get post", err)
	}

	return Success(c, post)
}

// CreateComment replies to a post. Commenters need a display name first.
func (h *Handler) CreateComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid post id")
	}

	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return Error(c, fiber.StatusBadRequest, "comment body is required")
	}

	comment, err := h.db.CreateForumComment(c.Context(), id, userID, body)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDisplayNameRequired):
			return Error(c, fiber.StatusConflict, "display name required")
		case errors.Is(err, database.ErrPostNotFound):
			return Error(c, fiber.StatusNotFound, "post not found")
		}
		return h.internalError(c, "failed to create comment", err)
	}

	return Created(c, comment)
}
