package models

import (
	"time"
)

// Author is the public profile shown next to forum content
type Author struct {
	DisplayName *string `json:"display_name"`
	Role        Role    `json:"role"`
}

// ForumPost represents a forum thread starter
type ForumPost struct {
	ID        int       `json:"id"`
	CreatedBy int       `json:"created_by"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// ForumComment represents a reply on a forum post
type ForumComment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	CreatedBy int       `json:"created_by"`
	Body      string    `json:"body"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// ForumPostWithComments is a post and its comments, oldest first
type ForumPostWithComments struct {
	ForumPost
	Comments []ForumComment `json:"comments"`
}

// CreatePostRequest is the request body for creating a forum post
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CreateCommentRequest is the request body for commenting on a post
type CreateCommentRequest struct {
	Body string `json:"body"`
}
