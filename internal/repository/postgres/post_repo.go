package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkovacic/quill/internal/domain"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, title, author_id, content, created_at, updated_at, published_at, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		post.ID, post.Title, post.AuthorID, post.Content,
		post.CreatedAt, post.UpdatedAt, post.PublishedAt, post.IsPublished,
	)
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	query := `
		SELECT p.id, p.title, p.author_id, p.content, p.created_at, p.updated_at,
			p.published_at, p.is_published, u.username
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.id = $1`
	var post domain.Post
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.AuthorID, &post.Content,
		&post.CreatedAt, &post.UpdatedAt, &post.PublishedAt, &post.IsPublished,
		&post.AuthorUsername,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &post, err
}

// List returns all posts ordered by first-publish time ascending, drafts
// (null published_at) first. Postgres sorts nulls last on ASC, hence the
// explicit NULLS FIRST.
func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	query := `
		SELECT p.id, p.title, p.author_id, p.content, p.created_at, p.updated_at,
			p.published_at, p.is_published, u.username
		FROM posts p
		JOIN users u ON p.author_id = u.id
		ORDER BY p.published_at ASC NULLS FIRST, p.created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID, &post.Title, &post.AuthorID, &post.Content,
			&post.CreatedAt, &post.UpdatedAt, &post.PublishedAt, &post.IsPublished,
			&post.AuthorUsername,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (r *PostRepo) ListIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT id FROM posts WHERE author_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Update writes title, content and the publish flag. The first-publish
// stamp happens inside the same row UPDATE: published_at is only filled
// when the post ends up published and has no stamp yet, so two concurrent
// publishes cannot both restamp it.
func (r *PostRepo) Update(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, is_published = $3, updated_at = $4,
			published_at = CASE WHEN $3 THEN COALESCE(published_at, $4) ELSE published_at END
		WHERE id = $5`
	_, err := r.pool.Exec(ctx, query,
		post.Title, post.Content, post.IsPublished, post.UpdatedAt, post.ID,
	)
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}
