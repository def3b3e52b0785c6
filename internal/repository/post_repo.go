package repository

import (
	"encoding/json"
	"errors"
	"time"

	"platefeed/internal/model"
	"platefeed/internal/util"

	"gorm.io/gorm"
)

// PostScope narrows a post query; scopes compose with GORM's Scopes. A nil
// scope matches everything.
type PostScope func(*gorm.DB) *gorm.DB

type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository
	Create(post *model.Post) error
	FindByID(id string) (*model.Post, error)
	Find(scope PostScope, order string, limit, offset int) ([]*model.Post, error)
	Count(scope PostScope) (int64, error)
	Update(post *model.Post) error
	Delete(id string) error
	IncrementShare(id string) error
}

type postRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	postCachePrefix     = "post:"
	postCacheExpiration = 15 * time.Minute
)

func NewPostRepository(db *gorm.DB, redis *util.RedisClient) PostRepository {
	return &postRepository{
		db:    db,
		redis: redis,
	}
}

// WithTx returns a repository bound to the given transaction
func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx, redis: r.redis}
}

// Create creates a new post
func (r *postRepository) Create(post *model.Post) error {
	return r.db.Create(post).Error
}

// FindByID finds a post by ID with author and rating joined, checking cache first
func (r *postRepository) FindByID(id string) (*model.Post, error) {
	if r.redis != nil {
		cached, err := r.getFromCache(postCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var post model.Post
	err := r.db.Preload("User").Preload("Rating").
		Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cachePost(&post)
	}

	return &post, nil
}

// Find lists posts matching the scope. List results are not cached: the
// scope is an opaque query fragment with no stable cache key.
func (r *postRepository) Find(scope PostScope, order string, limit, offset int) ([]*model.Post, error) {
	q := r.db.Preload("User").Preload("Rating")
	if scope != nil {
		q = q.Scopes(scope)
	}
	if order == "" {
		order = "created_at DESC"
	}

	var posts []*model.Post
	err := q.Order(order).
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Count counts posts matching the scope
func (r *postRepository) Count(scope PostScope) (int64, error) {
	q := r.db.Model(&model.Post{})
	if scope != nil {
		q = q.Scopes(scope)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update updates a post and invalidates its cache entry
func (r *postRepository) Update(post *model.Post) error {
	if err := r.db.Save(post).Error; err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Delete(postCachePrefix + post.ID)
	}
	return nil
}

// Delete deletes a post and invalidates its cache entry
func (r *postRepository) Delete(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Post{}).Error; err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Delete(postCachePrefix + id)
	}
	return nil
}

// IncrementShare bumps the share counter with a column expression so the
// count never goes backwards regardless of interleaving.
func (r *postRepository) IncrementShare(id string) error {
	res := r.db.Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumn("share_count", gorm.Expr("share_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	if r.redis != nil {
		r.redis.Delete(postCachePrefix + id)
	}
	return nil
}

// Cache helpers
func (r *postRepository) cachePost(post *model.Post) {
	if r.redis == nil {
		return
	}
	postJSON, err := json.Marshal(post)
	if err != nil {
		return
	}
	r.redis.Set(postCachePrefix+post.ID, string(postJSON), postCacheExpiration)
}

func (r *postRepository) getFromCache(key string) (*model.Post, error) {
	if r.redis == nil {
		return nil, errors.New("redis not available")
	}
	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}
	var post model.Post
	if err := json.Unmarshal([]byte(cached), &post); err != nil {
		return nil, err
	}
	return &post, nil
}
