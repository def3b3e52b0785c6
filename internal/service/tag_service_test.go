package service

import (
	"testing"

	"platefeed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTagsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	post := env.createPost(t, owner.ID, "Ramen spot")

	require.NoError(t, env.tags.AddTags(post.ID, []string{"ramen", "tokyo"}))
	require.NoError(t, env.tags.AddTags(post.ID, []string{"ramen", "tokyo"}))
	require.NoError(t, env.tags.AddTags(post.ID, []string{"ramen"}))

	view, err := env.views.GetPost(post.ID, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ramen", "tokyo"}, view.Tags)

	var tagCount int64
	require.NoError(t, env.db.Model(&model.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount)
}

func TestAddTagsSkipsBlankNames(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	post := env.createPost(t, owner.ID, "Taco truck")

	require.NoError(t, env.tags.AddTags(post.ID, []string{"", "  ", "tacos", " street food "}))

	view, err := env.views.GetPost(post.ID, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tacos", "street food"}, view.Tags)
}

func TestAddTagsSharesTagRowsAcrossPosts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	first := env.createPost(t, owner.ID, "First", "sushi")
	second := env.createPost(t, owner.ID, "Second", "sushi")

	firstView, err := env.views.GetPost(first.ID, "")
	require.NoError(t, err)
	secondView, err := env.views.GetPost(second.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"sushi"}, firstView.Tags)
	assert.Equal(t, []string{"sushi"}, secondView.Tags)

	var tagCount int64
	require.NoError(t, env.db.Model(&model.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(1), tagCount)
}

func TestAddTagsIsCaseSensitive(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	post := env.createPost(t, owner.ID, "Cafe")

	require.NoError(t, env.tags.AddTags(post.ID, []string{"Brunch", "brunch"}))

	view, err := env.views.GetPost(post.ID, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Brunch", "brunch"}, view.Tags)
}

func TestRemoveTagUnknownNameFails(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	post := env.createPost(t, owner.ID, "Diner", "burgers")

	err := env.tags.RemoveTag(post.ID, "no-such-tag")
	assert.ErrorIs(t, err, model.ErrTagNotFound)
}

func TestRemoveTagNotOnPostIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	tagged := env.createPost(t, owner.ID, "Tagged", "pizza")
	plain := env.createPost(t, owner.ID, "Plain")

	// The tag exists globally but is not attached to this post
	require.NoError(t, env.tags.RemoveTag(plain.ID, "pizza"))

	view, err := env.views.GetPost(tagged.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, view.Tags)
}

func TestRemoveTagLeavesTagRowBehind(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner")
	post := env.createPost(t, owner.ID, "Bistro", "wine")

	require.NoError(t, env.tags.RemoveTag(post.ID, "wine"))

	view, err := env.views.GetPost(post.ID, "")
	require.NoError(t, err)
	assert.Empty(t, view.Tags)

	// The orphaned tag row survives until a post deletion collects it
	var tagCount int64
	require.NoError(t, env.db.Model(&model.Tag{}).Where("name = ?", "wine").Count(&tagCount).Error)
	assert.Equal(t, int64(1), tagCount)
}

func TestAddTagsInvalidPostID(t *testing.T) {
	env := newTestEnv(t)

	err := env.tags.AddTags("not-a-uuid", []string{"x"})
	assert.ErrorIs(t, err, model.ErrInvalidID)
}
