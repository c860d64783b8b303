package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkovacic/quill/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		postRepo: postRepo,
	}
}

// UserProfile is the public view of an account: identity plus the IDs of
// the posts it authored, never the full records.
type UserProfile struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Posts    []uuid.UUID `json:"posts"`
}

func (s *UserService) List(ctx context.Context) ([]UserProfile, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]UserProfile, 0, len(users))
	for _, u := range users {
		ids, err := s.postRepo.ListIDsByAuthor(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("listing posts for %s: %w", u.ID, err)
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		profiles = append(profiles, UserProfile{ID: u.ID, Username: u.Username, Posts: ids})
	}

	return profiles, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ids, err := s.postRepo.ListIDsByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return &UserProfile{ID: user.ID, Username: user.Username, Posts: ids}, nil
}

// Deactivate soft-deletes the account: the record stays, login is refused.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.Deactivate(ctx, id)
}

// Delete removes the account for good, cascading to all its posts.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.Delete(ctx, id)
}
