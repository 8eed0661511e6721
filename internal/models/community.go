package models

import "time"

// Author is the public identity attached to posts and comments.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CommunityPost is a message on the shared community board.
type CommunityPost struct {
	ID        int64              `json:"id"`
	Author    Author             `json:"author"`
	Content   string             `json:"content"`
	LikeCount int64              `json:"likesCount"`
	CreatedAt time.Time          `json:"createdAt"`
	Comments  []CommunityComment `json:"comments"`
}

// CommunityComment is a reply to a post.
type CommunityComment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
