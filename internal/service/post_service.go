package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkovacic/quill/internal/domain"
	"github.com/dkovacic/quill/internal/repository"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("only the post author can perform this action")
)

// Notifier broadcasts real-time feed events to connected clients.
type Notifier interface {
	NotifyPostPublished(post *domain.Post)
	NotifyPostUpdated(post *domain.Post)
	NotifyPostDeleted(postID uuid.UUID)
}

type PostService struct {
	postRepo repository.PostRepository
	clock    Clock
	notifier Notifier
}

func NewPostService(postRepo repository.PostRepository, clock Clock) *PostService {
	return &PostService{
		postRepo: postRepo,
		clock:    clock,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *PostService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreatePostInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
}

type UpdatePostInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*domain.Post, error) {
	now := s.clock.Now()
	post := &domain.Post{
		ID:          uuid.New(),
		Title:       input.Title,
		AuthorID:    authorID,
		Content:     input.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsPublished: input.IsPublished,
	}
	post.StampPublished(now)

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	// Refetch for the joined author username
	full, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && full.IsPublished {
		s.notifier.NotifyPostPublished(full)
	}

	return full, nil
}

func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, userID, postID uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !post.AuthoredBy(userID) {
		return nil, ErrNotPostAuthor
	}

	firstPublish := input.IsPublished && post.PublishedAt == nil

	post.Title = input.Title
	post.Content = input.Content
	post.IsPublished = input.IsPublished
	post.UpdatedAt = s.clock.Now()

	// The repository stamps published_at inside the row UPDATE itself so
	// the write stays atomic.
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}

	updated, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if firstPublish {
			s.notifier.NotifyPostPublished(updated)
		} else if updated.IsPublished {
			s.notifier.NotifyPostUpdated(updated)
		}
	}

	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if !post.AuthoredBy(userID) {
		return ErrNotPostAuthor
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyPostDeleted(postID)
	}

	return nil
}
