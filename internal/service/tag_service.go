package service

import (
	"errors"
	"fmt"
	"strings"

	"platefeed/internal/model"
	"platefeed/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagService maintains the many-to-many association between posts and tags.
// Tag names are matched exactly (case-sensitive) on create and remove;
// search resolves them case-insensitively. The two can disagree on tags
// differing only by case, which is left as-is pending a product decision.
type TagService interface {
	AddTags(postID string, names []string) error
	AddTagsTx(tx *gorm.DB, postID string, names []string) error
	RemoveTag(postID, name string) error
}

type tagService struct {
	tagRepo  repository.TagRepository
	postRepo repository.PostRepository
}

func NewTagService(tagRepo repository.TagRepository, postRepo repository.PostRepository) TagService {
	return &tagService{
		tagRepo:  tagRepo,
		postRepo: postRepo,
	}
}

// AddTags find-or-creates each named tag and its association with the post.
// Re-adding an existing name is a no-op; blank names are skipped.
func (s *tagService) AddTags(postID string, names []string) error {
	if _, err := uuid.Parse(postID); err != nil {
		return fmt.Errorf("%w: %q is not a valid post id", model.ErrInvalidID, postID)
	}
	if _, err := s.postRepo.FindByID(postID); err != nil {
		return err
	}
	return s.addTags(s.tagRepo, postID, names)
}

// AddTagsTx is AddTags bound to an open transaction; the create orchestrator
// uses it so a failing tag write rolls the post insert back with it.
func (s *tagService) AddTagsTx(tx *gorm.DB, postID string, names []string) error {
	return s.addTags(s.tagRepo.WithTx(tx), postID, names)
}

func (s *tagService) addTags(repo repository.TagRepository, postID string, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		tag, err := repo.FindOrCreateByName(name)
		if err != nil {
			return fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		if err := repo.CreateAssociation(tag.ID, postID); err != nil {
			return fmt.Errorf("failed to tag post with %q: %w", name, err)
		}
	}
	return nil
}

// RemoveTag deletes the association between the post and the named tag.
// A name that resolves to no tag at all is an error; a tag that exists but
// is not on this post is a silent no-op. The tag row itself survives —
// garbage collection happens only when the post is deleted.
func (s *tagService) RemoveTag(postID, name string) error {
	if _, err := uuid.Parse(postID); err != nil {
		return fmt.Errorf("%w: %q is not a valid post id", model.ErrInvalidID, postID)
	}

	tag, err := s.tagRepo.FindByName(strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, model.ErrTagNotFound) {
			return fmt.Errorf("%w: %q", model.ErrTagNotFound, name)
		}
		return err
	}

	return s.tagRepo.DeleteAssociation(tag.ID, postID)
}
