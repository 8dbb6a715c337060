package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jinwuui/celeb-library-api-sub000/internal/api/dto"
	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
	"github.com/jinwuui/celeb-library-api-sub000/internal/service"
	apperrors "github.com/jinwuui/celeb-library-api-sub000/pkg/util"
)

// PostsHandler exposes the posts resource.
type PostsHandler struct {
	resolver *auth.IdentityResolver
	posts    *service.PostService
}

// NewPostsHandler constructs the handler.
func NewPostsHandler(resolver *auth.IdentityResolver, posts *service.PostService) *PostsHandler {
	return &PostsHandler{resolver: resolver, posts: posts}
}

// List handles GET /api/posts. Anonymous callers are served, even when a
// stale bearer token is attached.
func (h *PostsHandler) List(c *fiber.Ctx) error {
	if _, err := h.resolver.Resolve(c); err != nil {
		return err
	}

	posts, err := h.posts.ListPosts(c.Context())
	if err != nil {
		return err
	}

	out := make([]dto.PostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, toPostResponse(post))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Create handles POST /api/posts. Members only.
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	identity, err := h.resolver.RequireIdentity(c)
	if err != nil {
		return err
	}

	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedRequest("invalid payload", nil)
	}

	post, err := h.posts.CreatePost(c.Context(), identity, req.Title, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toPostResponse(*post)})
}

// Delete handles DELETE /api/posts/:id. Authors only.
func (h *PostsHandler) Delete(c *fiber.Ctx) error {
	identity, err := h.resolver.RequireIdentity(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return apperrors.NewMalformedRequest("invalid post id", nil)
	}

	if err := h.posts.DeletePost(c.Context(), identity, int64(id)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func toPostResponse(post domain.Post) dto.PostResponse {
	return dto.PostResponse{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Body:      post.Body,
		CreatedAt: post.CreatedAt,
	}
}
