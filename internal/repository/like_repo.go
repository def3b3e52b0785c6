package repository

import (
	"errors"
	"fmt"
	"time"

	"platefeed/internal/model"
	"platefeed/internal/util"

	"gorm.io/gorm"
)

type LikeRepository interface {
	WithTx(tx *gorm.DB) LikeRepository
	Create(like *model.Like) error
	FindByUserAndPost(userID, postID string) (*model.Like, error)
	FindByPostIDs(postIDs []string) (map[string][]model.Like, error)
	CountByPostIDs(postIDs []string) (map[string]int64, error)
	DeleteByUserAndPost(userID, postID string) error
	DeleteByPostID(postID string) error
}

type likeRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	likeByPostCachePrefix = "like:post:"
	likeCountCachePrefix  = "like:count:"
	likeCacheExpiration   = 10 * time.Minute
)

func NewLikeRepository(db *gorm.DB, redis *util.RedisClient) LikeRepository {
	return &likeRepository{
		db:    db,
		redis: redis,
	}
}

// WithTx returns a repository bound to the given transaction
func (r *likeRepository) WithTx(tx *gorm.DB) LikeRepository {
	return &likeRepository{db: tx, redis: r.redis}
}

// Create inserts an association row. A unique-pair violation comes back as
// model.ErrDuplicateAssociation so the toggle service can compensate.
func (r *likeRepository) Create(like *model.Like) error {
	if err := r.db.Create(like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateAssociation
		}
		return err
	}
	if r.redis != nil {
		r.invalidatePostCache(like.PostID)
	}
	return nil
}

// FindByUserAndPost finds the association for a pair, model.ErrNotFound when absent
func (r *likeRepository) FindByUserAndPost(userID, postID string) (*model.Like, error) {
	var like model.Like
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// FindByPostIDs loads the likers for a batch of posts, user docs included,
// grouped by post id. Every requested id has an entry.
func (r *likeRepository) FindByPostIDs(postIDs []string) (map[string][]model.Like, error) {
	m := make(map[string][]model.Like, len(postIDs))
	for _, id := range postIDs {
		m[id] = []model.Like{}
	}
	if len(postIDs) == 0 {
		return m, nil
	}

	var likes []model.Like
	err := r.db.Preload("User").
		Where("post_id IN ?", postIDs).
		Order("created_at DESC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	for _, like := range likes {
		m[like.PostID] = append(m[like.PostID], like)
	}
	return m, nil
}

// CountByPostIDs counts likes for multiple posts in one grouped query.
// Single-post counts go through the cache.
func (r *likeRepository) CountByPostIDs(postIDs []string) (map[string]int64, error) {
	if len(postIDs) == 0 {
		return map[string]int64{}, nil
	}

	if len(postIDs) == 1 && r.redis != nil {
		cacheKey := likeCountCachePrefix + postIDs[0]
		if cached, err := r.redis.Get(cacheKey); err == nil {
			var count int64
			if _, err := fmt.Sscanf(cached, "%d", &count); err == nil {
				return map[string]int64{postIDs[0]: count}, nil
			}
		}
	}

	var results []struct {
		PostID string
		Count  int64
	}
	err := r.db.Model(&model.Like{}).
		Select("post_id, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, len(postIDs))
	for _, row := range results {
		m[row.PostID] = row.Count
	}
	for _, id := range postIDs {
		if _, ok := m[id]; !ok {
			m[id] = 0
		}
	}

	if len(postIDs) == 1 && r.redis != nil {
		r.redis.Set(likeCountCachePrefix+postIDs[0], fmt.Sprintf("%d", m[postIDs[0]]), likeCacheExpiration)
	}

	return m, nil
}

// DeleteByUserAndPost removes every row for the pair. Under the unique index
// there is at most one, except mid-compensation after a duplicate-key race,
// which is exactly when deleting all of them matters.
func (r *likeRepository) DeleteByUserAndPost(userID, postID string) error {
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&model.Like{}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.invalidatePostCache(postID)
	}
	return nil
}

// DeleteByPostID removes all likes referencing a post (cascade delete path)
func (r *likeRepository) DeleteByPostID(postID string) error {
	err := r.db.Where("post_id = ?", postID).Delete(&model.Like{}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.invalidatePostCache(postID)
	}
	return nil
}

func (r *likeRepository) invalidatePostCache(postID string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(likeByPostCachePrefix + postID)
	r.redis.Delete(likeCountCachePrefix + postID)
}
