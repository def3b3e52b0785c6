package service

import (
	"testing"

	"platefeed/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPostAnonymousViewer(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	viewer := env.createUser(t, "Viewer")
	post := env.createPost(t, owner.ID, "Ramen spot", "ramen")

	_, err := env.interactions.ToggleLike(viewer.ID, post.ID)
	require.NoError(t, err)

	view, err := env.views.GetPost(post.ID, "")
	require.NoError(t, err)

	// Public aggregates are visible, viewer flags stay false
	assert.Equal(t, 1, view.LikeCount)
	assert.Equal(t, []string{"ramen"}, view.Tags)
	assert.False(t, view.IsLiked)
	assert.False(t, view.IsWantToGo)
	assert.False(t, view.IsOwner)
}

func TestGetPostExposesOnlyPublicAuthorFields(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	liker := env.createUser(t, "Liker")
	post := env.createPost(t, owner.ID, "Bistro")

	_, err := env.interactions.ToggleLike(liker.ID, post.ID)
	require.NoError(t, err)

	view, err := env.views.GetPost(post.ID, "")
	require.NoError(t, err)

	assert.Equal(t, owner.DisplayName, view.Author.DisplayName)
	require.Len(t, view.Likers, 1)
	assert.Equal(t, liker.ID, view.Likers[0].ID)
	assert.Equal(t, "Liker", view.Likers[0].DisplayName)
}

func TestGetPostCountsMatchJoinedRows(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	post := env.createPost(t, owner.ID, "Trattoria")

	users := []*model.User{
		env.createUser(t, "UserA"),
		env.createUser(t, "UserB"),
		env.createUser(t, "UserC"),
	}
	for _, u := range users {
		_, err := env.interactions.ToggleLike(u.ID, post.ID)
		require.NoError(t, err)
	}
	_, err := env.interactions.ToggleWantToGo(users[0].ID, post.ID)
	require.NoError(t, err)

	view, err := env.views.GetPost(post.ID, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, len(view.Likers), view.LikeCount)
	assert.Equal(t, len(view.Attendees), view.AttendeeCount)
	assert.Equal(t, 3, view.LikeCount)
	assert.Equal(t, 1, view.AttendeeCount)
}

func TestGetPostNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.views.GetPost(uuid.New().String(), "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetPostMalformedID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.views.GetPost("definitely-not-a-uuid", "")
	assert.ErrorIs(t, err, model.ErrInvalidID)
}

func TestListPostsEmptyMatchIsEmptySlice(t *testing.T) {
	env := newTestEnv(t)

	views, err := env.views.ListPosts(nil, "", 10, 0, SortNewest)
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListPostsClampsPageSize(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	for i := 0; i < MaxPageSize+10; i++ {
		env.createPost(t, owner.ID, "Post")
	}

	views, err := env.views.ListPosts(nil, "", 1000, 0, SortNewest)
	require.NoError(t, err)
	assert.Len(t, views, MaxPageSize)

	views, err = env.views.ListPosts(nil, "", 0, 0, SortNewest)
	require.NoError(t, err)
	assert.Len(t, views, DefaultPageSize)
}

func TestListPostsPagination(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	for i := 0; i < 5; i++ {
		env.createPost(t, owner.ID, "Post")
	}

	page1, total, err := env.views.ListPostsWithCount(nil, "", 2, 0, SortNewest)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page1, 2)

	page3, total, err := env.views.ListPostsWithCount(nil, "", 2, 4, SortNewest)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page3, 1)
}
