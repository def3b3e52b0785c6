package service

import (
	"fmt"
	"time"

	"platefeed/internal/model"
	"platefeed/internal/repository"

	"github.com/google/uuid"
)

// PostView is the composite read model: a post joined with its author,
// rating, likers, attendees and tags, annotated with viewer-dependent flags.
// It is assembled per request and never persisted.
type PostView struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Content       *string            `json:"content,omitempty"`
	Location      *string            `json:"location,omitempty"`
	PlaceName     *string            `json:"place_name,omitempty"`
	ImageURLs     []string           `json:"image_urls"`
	Rating        *model.Rating      `json:"rating,omitempty"`
	Author        model.PublicUser   `json:"author"`
	Likers        []model.PublicUser `json:"likers"`
	Attendees     []model.PublicUser `json:"attendees"`
	Tags          []string           `json:"tags"`
	LikeCount     int                `json:"like_count"`
	AttendeeCount int                `json:"attendee_count"`
	ShareCount    int64              `json:"share_count"`
	IsLiked       bool               `json:"is_liked"`
	IsWantToGo    bool               `json:"is_want_to_go"`
	IsOwner       bool               `json:"is_owner"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Page size bounds; the clamp bounds the join fan-out of a single request
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Sort orders accepted by ListPosts
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortShares = "shares"
)

type ViewService interface {
	GetPost(postID, viewerID string) (*PostView, error)
	ListPosts(scope repository.PostScope, viewerID string, limit, offset int, sort string) ([]*PostView, error)
	ListPostsWithCount(scope repository.PostScope, viewerID string, limit, offset int, sort string) ([]*PostView, int64, error)
}

type viewService struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
	wtgRepo  repository.WantToGoRepository
	tagRepo  repository.TagRepository
}

func NewViewService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	wtgRepo repository.WantToGoRepository,
	tagRepo repository.TagRepository,
) ViewService {
	return &viewService{
		postRepo: postRepo,
		likeRepo: likeRepo,
		wtgRepo:  wtgRepo,
		tagRepo:  tagRepo,
	}
}

// GetPost materializes the composite view of a single post
func (s *viewService) GetPost(postID, viewerID string) (*PostView, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid post id", model.ErrInvalidID, postID)
	}

	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, err
	}

	views, err := s.compose([]*model.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListPosts materializes views for all posts matching the scope. No match is
// an empty slice, not an error.
func (s *viewService) ListPosts(scope repository.PostScope, viewerID string, limit, offset int, sort string) ([]*PostView, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	posts, err := s.postRepo.Find(scope, orderClause(sort), limit, offset)
	if err != nil {
		return nil, err
	}
	return s.compose(posts, viewerID)
}

// ListPostsWithCount additionally reports the total match count for pagination
func (s *viewService) ListPostsWithCount(scope repository.PostScope, viewerID string, limit, offset int, sort string) ([]*PostView, int64, error) {
	views, err := s.ListPosts(scope, viewerID, limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.postRepo.Count(scope)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// compose runs the join/compute/project stages over a page of posts. Likers,
// attendees and tags are fetched in three grouped queries regardless of page
// size. Counts and viewer flags come from the same joined rows, so a view is
// always internally consistent.
func (s *viewService) compose(posts []*model.Post, viewerID string) ([]*PostView, error) {
	postIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	likesByPost, err := s.likeRepo.FindByPostIDs(postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to join likes: %w", err)
	}
	wtgByPost, err := s.wtgRepo.FindByPostIDs(postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to join want-to-go: %w", err)
	}
	tagsByPost, err := s.tagRepo.FindTagsByPostIDs(postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to join tags: %w", err)
	}

	views := make([]*PostView, 0, len(posts))
	for _, post := range posts {
		view := &PostView{
			ID:         post.ID,
			Title:      post.Title,
			Content:    post.Content,
			Location:   post.Location,
			PlaceName:  post.PlaceName,
			ImageURLs:  post.GetImageURLs(),
			Rating:     post.Rating,
			Author:     post.User.Public(),
			Likers:     []model.PublicUser{},
			Attendees:  []model.PublicUser{},
			Tags:       []string{},
			ShareCount: post.ShareCount,
			IsOwner:    viewerID != "" && post.UserID == viewerID,
			CreatedAt:  post.CreatedAt,
			UpdatedAt:  post.UpdatedAt,
		}

		for _, like := range likesByPost[post.ID] {
			view.Likers = append(view.Likers, like.User.Public())
			if viewerID != "" && like.UserID == viewerID {
				view.IsLiked = true
			}
		}
		for _, wtg := range wtgByPost[post.ID] {
			view.Attendees = append(view.Attendees, wtg.User.Public())
			if viewerID != "" && wtg.UserID == viewerID {
				view.IsWantToGo = true
			}
		}
		for _, tag := range tagsByPost[post.ID] {
			view.Tags = append(view.Tags, tag.Name)
		}

		view.LikeCount = len(view.Likers)
		view.AttendeeCount = len(view.Attendees)

		views = append(views, view)
	}
	return views, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func orderClause(sort string) string {
	switch sort {
	case SortOldest:
		return "created_at ASC"
	case SortShares:
		return "share_count DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
