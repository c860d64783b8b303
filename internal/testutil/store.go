// Package testutil provides in-memory repository implementations and other
// test doubles shared across test packages.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dkovacic/quill/internal/domain"
)

// Store is an in-memory stand-in for the Postgres schema. Users and posts
// live in one store so account deletion can cascade the way the foreign
// key constraint does.
type Store struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	posts map[uuid.UUID]domain.Post
	seq   int
	order map[uuid.UUID]int // insertion order, tiebreaker for equal timestamps
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]domain.User),
		posts: make(map[uuid.UUID]domain.Post),
		order: make(map[uuid.UUID]int),
	}
}

func (s *Store) UserRepo() *UserStore { return &UserStore{s: s} }
func (s *Store) PostRepo() *PostStore { return &PostStore{s: s} }

// UserStore implements repository.UserRepository.
type UserStore struct {
	s *Store
}

func (r *UserStore) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	r.s.order[user.ID] = r.s.seq
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserStore) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserStore) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.IsActive = false
		r.s.users[id] = u
	}
	return nil
}

func (r *UserStore) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	// Cascade, like the foreign key does.
	for pid, p := range r.s.posts {
		if p.AuthorID == id {
			delete(r.s.posts, pid)
		}
	}
	return nil
}

// PostStore implements repository.PostRepository with the same write
// semantics as the SQL repository, including the in-write publish stamp.
type PostStore struct {
	s *Store
}

func (r *PostStore) Create(_ context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	r.s.order[post.ID] = r.s.seq
	r.s.posts[post.ID] = *post
	return nil
}

func (r *PostStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	r.joinAuthor(&p)
	return &p, nil
}

func (r *PostStore) List(_ context.Context) ([]domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posts := make([]domain.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		r.joinAuthor(&p)
		posts = append(posts, p)
	}
	// published_at ASC NULLS FIRST, created_at ASC
	sort.Slice(posts, func(i, j int) bool {
		pi, pj := posts[i].PublishedAt, posts[j].PublishedAt
		switch {
		case pi == nil && pj != nil:
			return true
		case pi != nil && pj == nil:
			return false
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.Before(*pj)
		}
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return r.s.order[posts[i].ID] < r.s.order[posts[j].ID]
	})
	return posts, nil
}

func (r *PostStore) ListIDsByAuthor(_ context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uuid.UUID
	for _, p := range r.s.posts {
		if p.AuthorID == authorID {
			ids = append(ids, p.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.s.order[ids[i]] < r.s.order[ids[j]]
	})
	return ids, nil
}

func (r *PostStore) Update(_ context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.posts[post.ID]
	if !ok {
		return nil
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.IsPublished = post.IsPublished
	stored.UpdatedAt = post.UpdatedAt
	if post.IsPublished && stored.PublishedAt == nil {
		t := post.UpdatedAt
		stored.PublishedAt = &t
	}
	r.s.posts[post.ID] = stored
	return nil
}

func (r *PostStore) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.posts, id)
	return nil
}

func (r *PostStore) joinAuthor(p *domain.Post) {
	if u, ok := r.s.users[p.AuthorID]; ok {
		p.AuthorUsername = u.Username
	}
}
