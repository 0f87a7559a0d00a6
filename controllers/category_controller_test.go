package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogium/models"
)

func TestListCategoryPosts_ShowsOnlyLivePostsOfCategory(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice")
	travel := env.createCategory(t, "travel", true)
	food := env.createCategory(t, "food", true)
	now := time.Now()

	inCat := env.createPost(t, models.Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: true, CategoryID: &travel.ID})
	env.createPost(t, models.Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: true, CategoryID: &food.ID})
	env.createPost(t, models.Post{AuthorID: author.ID, PubDate: now.Add(-time.Hour), IsPublished: false, CategoryID: &travel.ID})
	env.createPost(t, models.Post{AuthorID: author.ID, PubDate: now.Add(time.Hour), IsPublished: true, CategoryID: &travel.ID})

	// Unusual page size keeps this off any shared cache key.
	w := env.do(t, http.MethodGet, "/api/v1/categories/travel/posts?page_size=41", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Category models.Category `json:"category"`
		Items    []models.Post   `json:"items"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, travel.ID, data.Category.ID)
	require.Len(t, data.Items, 1)
	assert.Equal(t, inCat.ID, data.Items[0].ID)
}

func TestListCategoryPosts_UnpublishedCategoryNotFound(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice")
	hidden := env.createCategory(t, "drafts", false)
	env.createPost(t, models.Post{AuthorID: author.ID, PubDate: time.Now().Add(-time.Hour), IsPublished: true, CategoryID: &hidden.ID})

	// Unpublished and missing categories are indistinguishable.
	w := env.do(t, http.MethodGet, "/api/v1/categories/drafts/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/categories/missing/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
