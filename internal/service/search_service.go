package service

import (
	"strings"

	"platefeed/internal/repository"

	"gorm.io/gorm"
)

// SearchService builds match predicates and delegates the heavy lifting to
// the view composer. No relevance ranking: results come back in the
// composer's default order, newest first.
type SearchService interface {
	SearchText(term string, limit, offset int, viewerID string) ([]*PostView, error)
	SearchByTags(names []string, limit, offset int, viewerID string) ([]*PostView, error)
}

type searchService struct {
	tagRepo     repository.TagRepository
	viewService ViewService
}

func NewSearchService(tagRepo repository.TagRepository, viewService ViewService) SearchService {
	return &searchService{
		tagRepo:     tagRepo,
		viewService: viewService,
	}
}

// SearchText matches a case-insensitive substring across title, content,
// place name and location
func (s *searchService) SearchText(term string, limit, offset int, viewerID string) ([]*PostView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*PostView{}, nil
	}

	pattern := "%" + strings.ToLower(term) + "%"
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(place_name) LIKE ? OR LOWER(location) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	return s.viewService.ListPosts(scope, viewerID, limit, offset, "")
}

// SearchByTags resolves tag names (case-insensitively) to the posts they are
// linked to. An empty resolution at either step short-circuits without
// touching the posts table.
func (s *searchService) SearchByTags(names []string, limit, offset int, viewerID string) ([]*PostView, error) {
	tagIDs, err := s.tagRepo.FindIDsByNamesFold(names)
	if err != nil {
		return nil, err
	}
	if len(tagIDs) == 0 {
		return []*PostView{}, nil
	}

	postIDs, err := s.tagRepo.FindPostIDsByTagIDs(tagIDs)
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return []*PostView{}, nil
	}

	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", postIDs)
	}
	return s.viewService.ListPosts(scope, viewerID, limit, offset, "")
}
