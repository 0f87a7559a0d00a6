package models

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&User{}, &Location{}, &Category{}, &Post{}, &Comment{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) User {
	t.Helper()
	u := User{Username: username}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, slug string, published bool) Category {
	t.Helper()
	c := Category{Title: slug, Slug: slug, IsPublished: published}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedPost(t *testing.T, db *gorm.DB, p Post) Post {
	t.Helper()
	if p.Title == "" {
		p.Title = "post"
	}
	if p.Text == "" {
		p.Text = "text"
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func postIDs(posts []Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestVisiblePosts_LivePredicate(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	author := seedUser(t, db, "alice")
	pubCat := seedCategory(t, db, "travel", true)
	hiddenCat := seedCategory(t, db, "drafts", false)

	live := seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: true, CategoryID: &pubCat.ID})
	uncategorized := seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(-2 * time.Hour), IsPublished: true})
	seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: false, CategoryID: &pubCat.ID})
	seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(time.Hour), IsPublished: true, CategoryID: &pubCat.ID})
	seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: true, CategoryID: &hiddenCat.ID})

	var posts []Post
	require.NoError(t, VisiblePosts(db, now).Find(&posts).Error)

	assert.ElementsMatch(t, []uint{live.ID, uncategorized.ID}, postIDs(posts))
}

func TestVisiblePosts_FutureDatedAppearsOnceDue(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	author := seedUser(t, db, "alice")
	scheduled := seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(time.Hour), IsPublished: true})

	var posts []Post
	require.NoError(t, VisiblePosts(db, now).Find(&posts).Error)
	assert.Empty(t, posts)

	require.NoError(t, VisiblePosts(db, now.Add(2*time.Hour)).Find(&posts).Error)
	assert.Equal(t, []uint{scheduled.ID}, postIDs(posts))
}

func TestPostFeed_OrderingAndCommentCount(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	author := seedUser(t, db, "alice")

	older := seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(-2 * time.Hour), IsPublished: true})
	newest := seedPost(t, db, Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: true})
	// Same pub_date as older: creation order breaks the tie, earliest first.
	require.NoError(t, db.Create(&Post{Title: "tie", Text: "t", AuthorID: author.ID, PubDate: older.PubDate, IsPublished: true, CreatedAt: older.CreatedAt.Add(time.Minute)}).Error)
	var tie Post
	require.NoError(t, db.Where("title = ?", "tie").First(&tie).Error)

	require.NoError(t, db.Create(&Comment{PostID: newest.ID, AuthorID: author.ID, Text: "one", IsPublished: true}).Error)
	require.NoError(t, db.Create(&Comment{PostID: newest.ID, AuthorID: author.ID, Text: "two", IsPublished: false}).Error)

	var posts []Post
	require.NoError(t, PostFeed(db).Find(&posts).Error)

	require.Len(t, posts, 3)
	assert.Equal(t, []uint{newest.ID, older.ID, tie.ID}, postIDs(posts))
	// Unpublished comments still count.
	assert.Equal(t, int64(2), posts[0].CommentCount)
	assert.Equal(t, int64(0), posts[1].CommentCount)
}

func TestAuthorPosts_OwnerBranch(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	visible := seedPost(t, db, Post{AuthorID: alice.ID, PubDate: now.Add(-time.Hour), IsPublished: true})
	draft := seedPost(t, db, Post{AuthorID: alice.ID, PubDate: now.Add(-time.Hour), IsPublished: false})
	scheduled := seedPost(t, db, Post{AuthorID: alice.ID, PubDate: now.Add(time.Hour), IsPublished: true})
	seedPost(t, db, Post{AuthorID: bob.ID, PubDate: now.Add(-time.Hour), IsPublished: true})

	var own []Post
	require.NoError(t, AuthorPosts(db, alice.ID, false, now).Find(&own).Error)
	assert.ElementsMatch(t, []uint{visible.ID, draft.ID, scheduled.ID}, postIDs(own))

	var public []Post
	require.NoError(t, AuthorPosts(db, alice.ID, true, now).Find(&public).Error)
	assert.Equal(t, []uint{visible.ID}, postIDs(public))
}

func TestCreateKeepsUnpublishedFlag(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "alice")

	// The false must survive the insert; a column default silently winning
	// over it would publish drafts.
	draft := seedPost(t, db, Post{AuthorID: author.ID, PubDate: time.Now(), IsPublished: false})
	var p Post
	require.NoError(t, db.First(&p, draft.ID).Error)
	assert.False(t, p.IsPublished)

	cat := seedCategory(t, db, "hidden", false)
	var c Category
	require.NoError(t, db.First(&c, cat.ID).Error)
	assert.False(t, c.IsPublished)

	loc := Location{Name: "nowhere", IsPublished: false}
	require.NoError(t, db.Create(&loc).Error)
	var l Location
	require.NoError(t, db.First(&l, loc.ID).Error)
	assert.False(t, l.IsPublished)

	var visible []Post
	require.NoError(t, VisiblePosts(db, time.Now().Add(time.Minute)).Find(&visible).Error)
	assert.Empty(t, visible)
}

func TestUserHasManyRelations(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	post := seedPost(t, db, Post{AuthorID: alice.ID, PubDate: time.Now(), IsPublished: true})
	require.NoError(t, db.Create(&Comment{PostID: post.ID, AuthorID: bob.ID, Text: "hi", IsPublished: true}).Error)

	var author User
	require.NoError(t, db.Preload("Posts").Preload("Comments").First(&author, alice.ID).Error)
	assert.Len(t, author.Posts, 1)
	assert.Empty(t, author.Comments)

	var commenter User
	require.NoError(t, db.Preload("Posts").Preload("Comments").First(&commenter, bob.ID).Error)
	assert.Empty(t, commenter.Posts)
	assert.Len(t, commenter.Comments, 1)
}

func TestPost_IsVisible(t *testing.T) {
	now := time.Now()
	catID := uint(7)

	cases := []struct {
		name string
		post Post
		want bool
	}{
		{"published past post", Post{IsPublished: true, PubDate: now.Add(-time.Minute)}, true},
		{"unpublished", Post{IsPublished: false, PubDate: now.Add(-time.Minute)}, false},
		{"future dated", Post{IsPublished: true, PubDate: now.Add(time.Minute)}, false},
		{"published category", Post{IsPublished: true, PubDate: now.Add(-time.Minute), CategoryID: &catID, Category: &Category{IsPublished: true}}, true},
		{"unpublished category", Post{IsPublished: true, PubDate: now.Add(-time.Minute), CategoryID: &catID, Category: &Category{IsPublished: false}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.post.IsVisible(now))
		})
	}
}
