package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
	"github.com/jinwuui/celeb-library-api-sub000/internal/repository"
	apperrors "github.com/jinwuui/celeb-library-api-sub000/pkg/util"
)

const defaultListLimit = 50

// PostService carries the post business rules that depend on the resolved
// identity: guests cannot publish, only authors delete their own posts.
type PostService struct {
	posts repository.PostRepository
}

// NewPostService builds the service.
func NewPostService(posts repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

// CreatePost publishes a post for a member. Guest accounts are refused;
// that policy belongs here, not in the gate chain.
func (s *PostService) CreatePost(ctx context.Context, identity domain.Identity, title, body string) (*domain.Post, error) {
	if identity.Anonymous {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if identity.IsGuest() {
		return nil, apperrors.NewForbidden("guests cannot publish posts")
	}
	if title == "" || body == "" {
		return nil, apperrors.NewMalformedRequest("title and body required", nil)
	}

	post := &domain.Post{
		AuthorID: identity.ID,
		Title:    title,
		Body:     body,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns recent posts. Anonymous callers are welcome.
func (s *PostService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx, defaultListLimit)
}

// DeletePost removes a post owned by the caller.
func (s *PostService) DeletePost(ctx context.Context, identity domain.Identity, id int64) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("post")
		}
		return err
	}
	if post.AuthorID != identity.ID {
		return apperrors.NewForbidden("not the author of this post")
	}
	return s.posts.Delete(ctx, id)
}
