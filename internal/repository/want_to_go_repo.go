package repository

import (
	"errors"
	"fmt"
	"time"

	"platefeed/internal/model"
	"platefeed/internal/util"

	"gorm.io/gorm"
)

type WantToGoRepository interface {
	WithTx(tx *gorm.DB) WantToGoRepository
	Create(wtg *model.WantToGo) error
	FindByUserAndPost(userID, postID string) (*model.WantToGo, error)
	FindByPostIDs(postIDs []string) (map[string][]model.WantToGo, error)
	CountByPostIDs(postIDs []string) (map[string]int64, error)
	DeleteByUserAndPost(userID, postID string) error
	DeleteByPostID(postID string) error
}

type wantToGoRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	wtgByPostCachePrefix = "wtg:post:"
	wtgCountCachePrefix  = "wtg:count:"
	wtgCacheExpiration   = 10 * time.Minute
)

func NewWantToGoRepository(db *gorm.DB, redis *util.RedisClient) WantToGoRepository {
	return &wantToGoRepository{
		db:    db,
		redis: redis,
	}
}

// WithTx returns a repository bound to the given transaction
func (r *wantToGoRepository) WithTx(tx *gorm.DB) WantToGoRepository {
	return &wantToGoRepository{db: tx, redis: r.redis}
}

// Create inserts an association row, translating unique-pair violations
func (r *wantToGoRepository) Create(wtg *model.WantToGo) error {
	if err := r.db.Create(wtg).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateAssociation
		}
		return err
	}
	if r.redis != nil {
		r.invalidatePostCache(wtg.PostID)
	}
	return nil
}

// FindByUserAndPost finds the association for a pair, model.ErrNotFound when absent
func (r *wantToGoRepository) FindByUserAndPost(userID, postID string) (*model.WantToGo, error) {
	var wtg model.WantToGo
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&wtg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wtg, nil
}

// FindByPostIDs loads attendees for a batch of posts, grouped by post id
func (r *wantToGoRepository) FindByPostIDs(postIDs []string) (map[string][]model.WantToGo, error) {
	m := make(map[string][]model.WantToGo, len(postIDs))
	for _, id := range postIDs {
		m[id] = []model.WantToGo{}
	}
	if len(postIDs) == 0 {
		return m, nil
	}

	var rows []model.WantToGo
	err := r.db.Preload("User").
		Where("post_id IN ?", postIDs).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, wtg := range rows {
		m[wtg.PostID] = append(m[wtg.PostID], wtg)
	}
	return m, nil
}

// CountByPostIDs counts attendees per post in one grouped query.
// Single-post counts go through the cache.
func (r *wantToGoRepository) CountByPostIDs(postIDs []string) (map[string]int64, error) {
	if len(postIDs) == 0 {
		return map[string]int64{}, nil
	}

	if len(postIDs) == 1 && r.redis != nil {
		cacheKey := wtgCountCachePrefix + postIDs[0]
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
	err := r.db.Model(&model.WantToGo{}).
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
		r.redis.Set(wtgCountCachePrefix+postIDs[0], fmt.Sprintf("%d", m[postIDs[0]]), wtgCacheExpiration)
	}

	return m, nil
}

// DeleteByUserAndPost removes every row for the pair (see LikeRepository)
func (r *wantToGoRepository) DeleteByUserAndPost(userID, postID string) error {
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&model.WantToGo{}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.invalidatePostCache(postID)
	}
	return nil
}

// DeleteByPostID removes all want-to-go rows referencing a post
func (r *wantToGoRepository) DeleteByPostID(postID string) error {
	err := r.db.Where("post_id = ?", postID).Delete(&model.WantToGo{}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.invalidatePostCache(postID)
	}
	return nil
}

func (r *wantToGoRepository) invalidatePostCache(postID string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(wtgByPostCachePrefix + postID)
	r.redis.Delete(wtgCountCachePrefix + postID)
}
