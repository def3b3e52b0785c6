package repository

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"platefeed/internal/model"
	"platefeed/internal/util"

	"gorm.io/gorm"
)

type TagRepository interface {
	WithTx(tx *gorm.DB) TagRepository
	FindByName(name string) (*model.Tag, error)
	FindOrCreateByName(name string) (*model.Tag, error)
	FindIDsByNamesFold(names []string) ([]string, error)
	FindAssociation(tagID, postID string) (*model.PostTag, error)
	CreateAssociation(tagID, postID string) error
	DeleteAssociation(tagID, postID string) error
	DeleteByPostID(postID string) ([]string, error)
	FindTagsByPostIDs(postIDs []string) (map[string][]model.Tag, error)
	FindPostIDsByTagIDs(tagIDs []string) ([]string, error)
	DeleteUnreferenced(tagIDs []string) error
}

type tagRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	tagByPostCachePrefix = "tag:post:"
	tagCacheExpiration   = 10 * time.Minute
)

func NewTagRepository(db *gorm.DB, redis *util.RedisClient) TagRepository {
	return &tagRepository{
		db:    db,
		redis: redis,
	}
}

// WithTx returns a repository bound to the given transaction
func (r *tagRepository) WithTx(tx *gorm.DB) TagRepository {
	return &tagRepository{db: tx, redis: r.redis}
}

// FindByName finds a tag by exact (case-sensitive) name
func (r *tagRepository) FindByName(name string) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindOrCreateByName returns the tag with the exact name, creating it on
// first use. A concurrent creation losing the unique-name race falls back to
// reading the winner's row.
func (r *tagRepository) FindOrCreateByName(name string) (*model.Tag, error) {
	tag, err := r.FindByName(name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, model.ErrTagNotFound) {
		return nil, err
	}

	created := &model.Tag{Name: name}
	if err := r.db.Create(created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindByName(name)
		}
		return nil, err
	}
	return created, nil
}

// FindIDsByNamesFold resolves tag names case-insensitively to tag ids.
// Names that resolve to nothing are dropped silently.
func (r *tagRepository) FindIDsByNamesFold(names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}
	lowered := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			lowered = append(lowered, strings.ToLower(trimmed))
		}
	}
	if len(lowered) == 0 {
		return []string{}, nil
	}

	var tags []model.Tag
	if err := r.db.Where("LOWER(name) IN ?", lowered).Find(&tags).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// FindAssociation finds the (tag, post) association row
func (r *tagRepository) FindAssociation(tagID, postID string) (*model.PostTag, error) {
	var pt model.PostTag
	err := r.db.Where("tag_id = ? AND post_id = ?", tagID, postID).First(&pt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

// CreateAssociation links a tag to a post; linking an already-linked pair is
// a no-op, including when a concurrent request wins the insert.
func (r *tagRepository) CreateAssociation(tagID, postID string) error {
	if _, err := r.FindAssociation(tagID, postID); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	pt := &model.PostTag{TagID: tagID, PostID: postID}
	if err := r.db.Create(pt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	if r.redis != nil {
		r.redis.Delete(tagByPostCachePrefix + postID)
	}
	return nil
}

// DeleteAssociation unlinks a tag from a post
func (r *tagRepository) DeleteAssociation(tagID, postID string) error {
	err := r.db.Where("tag_id = ? AND post_id = ?", tagID, postID).Delete(&model.PostTag{}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Delete(tagByPostCachePrefix + postID)
	}
	return nil
}

// DeleteByPostID removes all tag associations of a post and returns the tag
// ids that were linked, so the caller can garbage-collect orphaned tags.
func (r *tagRepository) DeleteByPostID(postID string) ([]string, error) {
	var rows []model.PostTag
	if err := r.db.Select("tag_id").Where("post_id = ?", postID).Find(&rows).Error; err != nil {
		return nil, err
	}
	tagIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		tagIDs = append(tagIDs, row.TagID)
	}

	if err := r.db.Where("post_id = ?", postID).Delete(&model.PostTag{}).Error; err != nil {
		return nil, err
	}
	if r.redis != nil {
		r.redis.Delete(tagByPostCachePrefix + postID)
	}
	return tagIDs, nil
}

// FindTagsByPostIDs loads the tags of a batch of posts, grouped by post id.
// Single-post lookups go through the cache.
func (r *tagRepository) FindTagsByPostIDs(postIDs []string) (map[string][]model.Tag, error) {
	m := make(map[string][]model.Tag, len(postIDs))
	for _, id := range postIDs {
		m[id] = []model.Tag{}
	}
	if len(postIDs) == 0 {
		return m, nil
	}

	if len(postIDs) == 1 && r.redis != nil {
		if cached, err := r.redis.Get(tagByPostCachePrefix + postIDs[0]); err == nil {
			var tags []model.Tag
			if err := json.Unmarshal([]byte(cached), &tags); err == nil {
				m[postIDs[0]] = tags
				return m, nil
			}
		}
	}

	var rows []model.PostTag
	err := r.db.Preload("Tag").
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		m[row.PostID] = append(m[row.PostID], row.Tag)
	}

	if len(postIDs) == 1 && r.redis != nil {
		if tagsJSON, err := json.Marshal(m[postIDs[0]]); err == nil {
			r.redis.Set(tagByPostCachePrefix+postIDs[0], string(tagsJSON), tagCacheExpiration)
		}
	}

	return m, nil
}

// FindPostIDsByTagIDs resolves tag ids to the distinct posts they are linked to
func (r *tagRepository) FindPostIDsByTagIDs(tagIDs []string) ([]string, error) {
	if len(tagIDs) == 0 {
		return []string{}, nil
	}
	var rows []model.PostTag
	err := r.db.Select("DISTINCT post_id").
		Where("tag_id IN ?", tagIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PostID)
	}
	return ids, nil
}

// DeleteUnreferenced garbage-collects the given tags if no association
// references them anymore. Only the post-delete cascade calls this; removing
// a single tag from a post keeps the tag row.
func (r *tagRepository) DeleteUnreferenced(tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return r.db.
		Where("id IN ?", tagIDs).
		Where("id NOT IN (?)", r.db.Model(&model.PostTag{}).Select("tag_id")).
		Delete(&model.Tag{}).Error
}
