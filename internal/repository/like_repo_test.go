package repository

import (
	"fmt"
	"strings"
	"testing"

	"platefeed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.Like{},
		&model.WantToGo{},
		&model.Tag{},
		&model.PostTag{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func seedUserAndPost(t *testing.T, db *gorm.DB) (userID, postID string) {
	t.Helper()
	user := &model.User{DisplayName: "U", Email: t.Name() + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	post := &model.Post{UserID: user.ID, Title: "P"}
	require.NoError(t, db.Create(post).Error)
	return user.ID, post.ID
}

func TestLikeCreateTranslatesDuplicateKey(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewLikeRepository(db, nil)
	userID, postID := seedUserAndPost(t, db)

	require.NoError(t, repo.Create(&model.Like{UserID: userID, PostID: postID}))

	err := repo.Create(&model.Like{UserID: userID, PostID: postID})
	assert.ErrorIs(t, err, model.ErrDuplicateAssociation)
}

func TestLikeDeleteByUserAndPostRemovesAllRows(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewLikeRepository(db, nil)
	userID, postID := seedUserAndPost(t, db)

	require.NoError(t, repo.Create(&model.Like{UserID: userID, PostID: postID}))
	require.NoError(t, repo.DeleteByUserAndPost(userID, postID))

	_, err := repo.FindByUserAndPost(userID, postID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLikeFindByPostIDsGroupsWithEmptyEntries(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewLikeRepository(db, nil)
	userID, postID := seedUserAndPost(t, db)

	other := &model.Post{UserID: userID, Title: "Other"}
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, repo.Create(&model.Like{UserID: userID, PostID: postID}))

	grouped, err := repo.FindByPostIDs([]string{postID, other.ID})
	require.NoError(t, err)
	assert.Len(t, grouped[postID], 1)
	assert.Equal(t, userID, grouped[postID][0].User.ID)
	assert.Empty(t, grouped[other.ID])
}

func TestTagFindIDsByNamesFold(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewTagRepository(db, nil)

	tag, err := repo.FindOrCreateByName("Brunch")
	require.NoError(t, err)

	ids, err := repo.FindIDsByNamesFold([]string{"brunch"})
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, ids)

	ids, err = repo.FindIDsByNamesFold([]string{"BRUNCH", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, ids)
}

func TestTagFindByNameIsExact(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewTagRepository(db, nil)

	_, err := repo.FindOrCreateByName("Brunch")
	require.NoError(t, err)

	_, err = repo.FindByName("Brunch")
	assert.NoError(t, err)

	_, err = repo.FindByName("brunch")
	assert.ErrorIs(t, err, model.ErrTagNotFound)
}

func TestTagCreateAssociationIsIdempotent(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewTagRepository(db, nil)
	_, postID := seedUserAndPost(t, db)

	tag, err := repo.FindOrCreateByName("ramen")
	require.NoError(t, err)

	require.NoError(t, repo.CreateAssociation(tag.ID, postID))
	require.NoError(t, repo.CreateAssociation(tag.ID, postID))

	var count int64
	require.NoError(t, db.Model(&model.PostTag{}).
		Where("tag_id = ? AND post_id = ?", tag.ID, postID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTagDeleteUnreferencedKeepsLiveTags(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewTagRepository(db, nil)
	_, postID := seedUserAndPost(t, db)

	live, err := repo.FindOrCreateByName("live")
	require.NoError(t, err)
	orphan, err := repo.FindOrCreateByName("orphan")
	require.NoError(t, err)
	require.NoError(t, repo.CreateAssociation(live.ID, postID))

	require.NoError(t, repo.DeleteUnreferenced([]string{live.ID, orphan.ID}))

	var count int64
	require.NoError(t, db.Model(&model.Tag{}).Where("id = ?", live.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&model.Tag{}).Where("id = ?", orphan.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPostIncrementShare(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewPostRepository(db, nil)
	_, postID := seedUserAndPost(t, db)

	require.NoError(t, repo.IncrementShare(postID))
	require.NoError(t, repo.IncrementShare(postID))

	post, err := repo.FindByID(postID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.ShareCount)

	err = repo.IncrementShare("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
