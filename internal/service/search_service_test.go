package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTextIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	content := "hand-pulled NOODLES every morning"
	_, err := env.posts.CreatePost(owner.ID, CreatePostRequest{
		Title:   "Lanzhou kitchen",
		Content: &content,
	})
	require.NoError(t, err)

	for _, term := range []string{"noodles", "NOODLES", "NoOdLeS", "lanzhou"} {
		views, err := env.search.SearchText(term, 10, 0, "")
		require.NoError(t, err)
		assert.Len(t, views, 1, "term %q", term)
	}
}

func TestSearchTextMatchesPlaceAndLocation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	place := "Golden Gate Bakery"
	location := "Chinatown, San Francisco"
	_, err := env.posts.CreatePost(owner.ID, CreatePostRequest{
		Title:     "Egg tarts",
		PlaceName: &place,
		Location:  &location,
	})
	require.NoError(t, err)

	views, err := env.search.SearchText("golden gate", 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, err = env.search.SearchText("chinatown", 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestSearchTextBlankTermReturnsNothing(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	env.createPost(t, owner.ID, "Visible post")

	for _, term := range []string{"", "   "} {
		views, err := env.search.SearchText(term, 10, 0, "")
		require.NoError(t, err)
		assert.Empty(t, views)
	}
}

func TestSearchTextCarriesViewerFlags(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	viewer := env.createUser(t, "Viewer")
	post := env.createPost(t, owner.ID, "Searchable ramen")

	_, err := env.interactions.ToggleLike(viewer.ID, post.ID)
	require.NoError(t, err)

	views, err := env.search.SearchText("searchable", 10, 0, viewer.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsLiked)

	views, err = env.search.SearchText("searchable", 10, 0, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].IsLiked)
}

func TestSearchByTagsFoldsCase(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	env.createPost(t, owner.ID, "Taqueria", "Tacos")

	views, err := env.search.SearchByTags([]string{"tacos"}, 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, err = env.search.SearchByTags([]string{"TACOS"}, 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestSearchByTagsMatchesAnyName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	env.createPost(t, owner.ID, "Sushi bar", "sushi")
	env.createPost(t, owner.ID, "Pizza place", "pizza")
	env.createPost(t, owner.ID, "Untagged diner")

	views, err := env.search.SearchByTags([]string{"sushi", "pizza"}, 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestSearchByTagsUnknownNamesShortCircuit(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	env.createPost(t, owner.ID, "Tagged", "known")

	views, err := env.search.SearchByTags([]string{"unknown"}, 10, 0, "")
	require.NoError(t, err)
	assert.Empty(t, views)

	views, err = env.search.SearchByTags(nil, 10, 0, "")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSearchByTagsDeduplicatesPosts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	env.createPost(t, owner.ID, "Double tagged", "brunch", "coffee")

	views, err := env.search.SearchByTags([]string{"brunch", "coffee"}, 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}
