package models

import (
	"time"

	"gorm.io/gorm"
)

// commentCountSelect annotates each row with the number of comments
// referencing the post, independent of each comment's own published flag.
const commentCountSelect = "posts.*, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// PostFeed returns the base post query with related records preloaded, the
// comment_count annotation and feed ordering (newest pub_date first,
// creation time as tie-break). The query is built fresh on every call so no
// state is shared between requests.
func PostFeed(db *gorm.DB) *gorm.DB {
	return db.Model(&Post{}).
		Preload("Author").
		Preload("Location").
		Preload("Category").
		Select(commentCountSelect).
		Order("posts.pub_date DESC").
		Order("posts.created_at ASC")
}

// VisiblePosts narrows PostFeed to posts shown to the general audience:
// published, not future-dated and, when categorized, filed under a
// published category. Posts without a category are exempt from the
// category clause.
func VisiblePosts(db *gorm.DB, now time.Time) *gorm.DB {
	return PostFeed(db).
		Joins("LEFT JOIN categories ON categories.id = posts.category_id").
		Where("posts.is_published = ?", true).
		Where("posts.pub_date <= ?", now).
		Where("posts.category_id IS NULL OR categories.is_published = ?", true)
}

// AuthorPosts returns the posts of one author. When visibleOnly is false the
// owner is browsing their own profile and sees everything, including
// unpublished and future-dated posts.
func AuthorPosts(db *gorm.DB, authorID uint, visibleOnly bool, now time.Time) *gorm.DB {
	if visibleOnly {
		return VisiblePosts(db, now).Where("posts.author_id = ?", authorID)
	}
	return PostFeed(db).Where("posts.author_id = ?", authorID)
}

// IsVisible reports whether an already-loaded post satisfies the
// general-audience predicate at the given instant. Category must be
// preloaded for categorized posts.
func (p *Post) IsVisible(now time.Time) bool {
	if !p.IsPublished || p.PubDate.After(now) {
		return false
	}
	if p.CategoryID != nil && (p.Category == nil || !p.Category.IsPublished) {
		return false
	}
	return true
}
