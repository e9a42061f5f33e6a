package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/bubblegut/internal/models"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrDisplayNameRequired = errors.New("display name required")
)

const forumPostLimit = 50

// ListForumPosts returns the latest posts with their authors' public profile
func (db *DB) ListForumPosts(ctx context.Context) ([]models.ForumPost, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT p.id, p.created_by, p.title, p.body, u.display_name, u.role, p.created_at
		FROM forum_posts p
		JOIN users u ON u.id = p.created_by
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1
	`, forumPostLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.ForumPost{}
	for rows.Next() {
		var p models.ForumPost
		if err := rows.Scan(&p.ID, &p.CreatedBy, &p.Title, &p.Body, &p.Author.DisplayName, &p.Author.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// CreateForumPost creates a post authored by userID
func (db *DB) CreateForumPost(ctx context.Context, userID int, title, body string) (*models.ForumPost, error) {
	p := &models.ForumPost{}
	err := db.Pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO forum_posts (created_by, title, body) VALUES ($1, $2, $3)
			RETURNING id, created_by, title, body, created_at
		)
		SELECT i.id, i.created_by, i.title, i.body, u.display_name, u.role, i.created_at
		FROM inserted i
		JOIN users u ON u.id = i.created_by
	`, userID, title, body).Scan(&p.ID, &p.CreatedBy, &p.Title, &p.Body, &p.Author.DisplayName, &p.Author.Role, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

// GetForumPost returns a post with its comments, oldest comment first
func (db *DB) GetForumPost(ctx context.Context, postID int) (*models.ForumPostWithComments, error) {
	post := &models.ForumPostWithComments{}
	err := db.Pool.QueryRow(ctx, `
		SELECT p.id, p.created_by, p.title, p.body, u.display_name, u.role, p.created_at
		FROM forum_posts p
		JOIN users u ON u.id = p.created_by
		WHERE p.id = $1
	`, postID).Scan(&post.ID, &post.CreatedBy, &post.Title, &post.Body, &post.Author.DisplayName, &post.Author.Role, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT c.id, c.post_id, c.created_by, c.body, u.display_name, u.role, c.created_at
		FROM forum_comments c
		JOIN users u ON u.id = c.created_by
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	post.Comments = []models.ForumComment{}
	for rows.Next() {
		var c models.ForumComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.CreatedBy, &c.Body, &c.Author.DisplayName, &c.Author.Role, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		post.Comments = append(post.Comments, c)
	}

	return post, rows.Err()
}

// CreateForumComment adds a comment to a post. The author must have a display name.
func (db *DB) CreateForumComment(ctx context.Context, postID, userID int, body string) (*models.ForumComment, error) {
	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasDisplayName() {
		return nil, ErrDisplayNameRequired
	}

	c := &models.ForumComment{
		PostID:    postID,
		CreatedBy: userID,
		Body:      body,
		Author:    models.Author{DisplayName: user.DisplayName, Role: user.Role},
	}
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO forum_comments (post_id, created_by, body)
		SELECT id, $2, $3 FROM forum_posts WHERE id = $1
		RETURNING id, created_at
	`, postID, userID, body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return c, nil
}
