package models

import "time"

// Post is a publication written by a user. PubDate may sit in the future
// for scheduled publication; such posts stay hidden until the date passes.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Image       string    `gorm:"size:512" json:"image"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Location *Location `gorm:"constraint:OnDelete:SET NULL;" json:"location,omitempty"`
	Category *Category `gorm:"constraint:OnDelete:SET NULL;" json:"category,omitempty"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// CommentCount is annotated by the feed query; never stored.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}
