package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogium/models"
)

func TestGetProfile_OwnerSeesEverything(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	now := time.Now()

	env.createPost(t, models.Post{AuthorID: alice.ID, PubDate: now.Add(-time.Hour), IsPublished: true})
	env.createPost(t, models.Post{AuthorID: alice.ID, PubDate: now.Add(-time.Hour), IsPublished: false})
	env.createPost(t, models.Post{AuthorID: alice.ID, PubDate: now.Add(time.Hour), IsPublished: true})

	w := env.do(t, http.MethodGet, "/api/v1/profiles/alice", tokenFor(t, alice), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Profile models.User   `json:"profile"`
		Items   []models.Post `json:"items"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, alice.ID, data.Profile.ID)
	assert.Len(t, data.Items, 3)
}

func TestGetProfile_VisitorSeesOnlyLivePosts(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	now := time.Now()

	live := env.createPost(t, models.Post{AuthorID: alice.ID, PubDate: now.Add(-time.Hour), IsPublished: true})
	env.createPost(t, models.Post{AuthorID: alice.ID, PubDate: now.Add(-time.Hour), IsPublished: false})
	env.createPost(t, models.Post{AuthorID: alice.ID, PubDate: now.Add(time.Hour), IsPublished: true})

	var data struct {
		Items []models.Post `json:"items"`
	}

	// Anonymous visitor.
	w := env.do(t, http.MethodGet, "/api/v1/profiles/alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &data)
	require.Len(t, data.Items, 1)
	assert.Equal(t, live.ID, data.Items[0].ID)

	// Logged in as someone else: same view.
	w = env.do(t, http.MethodGet, "/api/v1/profiles/alice", tokenFor(t, bob), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &data)
	require.Len(t, data.Items, 1)
}

func TestGetProfile_UnknownUserNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/profiles/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
