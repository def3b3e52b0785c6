package service

import (
	"fmt"
	"log"
	"strings"

	"platefeed/internal/model"
	"platefeed/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostService orchestrates post lifecycle. Create and delete are the only
// multi-collection writes and run inside one transaction each; everything
// else is read composition or a single-collection write.
type PostService interface {
	CreatePost(ownerID string, req CreatePostRequest) (*PostView, error)
	GetPost(postID, viewerID string) (*PostView, error)
	ListPosts(opts ListPostsOptions) ([]*PostView, int64, error)
	UpdatePost(userID, postID string, req UpdatePostRequest) (*PostView, error)
	DeletePost(userID, postID string) (string, error)
	AddTags(userID, postID string, names []string) (*PostView, error)
	RemoveTag(userID, postID, name string) (*PostView, error)
	ListRatings() ([]model.Rating, error)
}

type CreatePostRequest struct {
	Title     string   `json:"title" binding:"required"`
	Content   *string  `json:"content,omitempty"`
	Location  *string  `json:"location,omitempty"`
	PlaceName *string  `json:"place_name,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
	RatingID  *string  `json:"rating_id,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type UpdatePostRequest struct {
	Title     *string  `json:"title,omitempty"`
	Content   *string  `json:"content,omitempty"`
	Location  *string  `json:"location,omitempty"`
	PlaceName *string  `json:"place_name,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
	RatingID  *string  `json:"rating_id,omitempty"`
}

type ListPostsOptions struct {
	OwnerID   string
	ViewerID  string
	Limit     int
	Offset    int
	Sort      string
	WithCount bool
}

type postService struct {
	db          *gorm.DB
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	ratingRepo  repository.RatingRepository
	tagRepo     repository.TagRepository
	likeRepo    repository.LikeRepository
	wtgRepo     repository.WantToGoRepository
	notifRepo   repository.NotificationRepository
	tagService  TagService
	viewService ViewService
}

func NewPostService(
	db *gorm.DB,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	ratingRepo repository.RatingRepository,
	tagRepo repository.TagRepository,
	likeRepo repository.LikeRepository,
	wtgRepo repository.WantToGoRepository,
	notifRepo repository.NotificationRepository,
	tagService TagService,
	viewService ViewService,
) PostService {
	return &postService{
		db:          db,
		postRepo:    postRepo,
		userRepo:    userRepo,
		ratingRepo:  ratingRepo,
		tagRepo:     tagRepo,
		likeRepo:    likeRepo,
		wtgRepo:     wtgRepo,
		notifRepo:   notifRepo,
		tagService:  tagService,
		viewService: viewService,
	}
}

// CreatePost inserts the post and its initial tags in one transaction: a
// failing tag write leaves no partial post behind.
func (s *postService) CreatePost(ownerID string, req CreatePostRequest) (*PostView, error) {
	if _, err := s.userRepo.FindByID(ownerID); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrInvalidInput)
	}
	if req.RatingID != nil {
		if _, err := s.ratingRepo.FindByID(*req.RatingID); err != nil {
			return nil, fmt.Errorf("rating: %w", err)
		}
	}

	post := &model.Post{
		UserID:    ownerID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Location:  req.Location,
		PlaceName: req.PlaceName,
		RatingID:  req.RatingID,
	}
	if err := post.SetImageURLs(req.ImageURLs); err != nil {
		return nil, fmt.Errorf("%w: bad image urls", model.ErrInvalidInput)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.postRepo.WithTx(tx).Create(post); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		if len(req.Tags) > 0 {
			if err := s.tagService.AddTagsTx(tx, post.ID, req.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.viewService.GetPost(post.ID, ownerID)
}

// GetPost materializes a single composite view
func (s *postService) GetPost(postID, viewerID string) (*PostView, error) {
	return s.viewService.GetPost(postID, viewerID)
}

// ListPosts materializes views, optionally restricted to one owner's posts
func (s *postService) ListPosts(opts ListPostsOptions) ([]*PostView, int64, error) {
	var scope repository.PostScope
	if opts.OwnerID != "" {
		if _, err := uuid.Parse(opts.OwnerID); err != nil {
			return nil, 0, fmt.Errorf("%w: %q is not a valid user id", model.ErrInvalidID, opts.OwnerID)
		}
		ownerID := opts.OwnerID
		scope = func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ?", ownerID)
		}
	}

	if opts.WithCount {
		return s.viewService.ListPostsWithCount(scope, opts.ViewerID, opts.Limit, opts.Offset, opts.Sort)
	}
	views, err := s.viewService.ListPosts(scope, opts.ViewerID, opts.Limit, opts.Offset, opts.Sort)
	return views, int64(len(views)), err
}

// UpdatePost applies a partial update; only the owner may update
func (s *postService) UpdatePost(userID, postID string, req UpdatePostRequest) (*PostView, error) {
	post, err := s.ownedPost(userID, postID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", model.ErrInvalidInput)
		}
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		post.Content = req.Content
	}
	if req.Location != nil {
		post.Location = req.Location
	}
	if req.PlaceName != nil {
		post.PlaceName = req.PlaceName
	}
	if req.ImageURLs != nil {
		if err := post.SetImageURLs(req.ImageURLs); err != nil {
			return nil, fmt.Errorf("%w: bad image urls", model.ErrInvalidInput)
		}
	}
	if req.RatingID != nil {
		if _, err := s.ratingRepo.FindByID(*req.RatingID); err != nil {
			return nil, fmt.Errorf("rating: %w", err)
		}
		post.RatingID = req.RatingID
	}

	if err := s.postRepo.Update(post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return s.viewService.GetPost(postID, userID)
}

// DeletePost removes the post and every association referencing it in one
// transaction, so no dangling Like/WantToGo/PostTag row ever survives.
// Tags left without any association are garbage-collected in the same scope.
func (s *postService) DeletePost(userID, postID string) (string, error) {
	if _, err := s.ownedPost(userID, postID); err != nil {
		return "", err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		tagIDs, err := s.tagRepo.WithTx(tx).DeleteByPostID(postID)
		if err != nil {
			return fmt.Errorf("failed to cascade tags: %w", err)
		}
		if err := s.likeRepo.WithTx(tx).DeleteByPostID(postID); err != nil {
			return fmt.Errorf("failed to cascade likes: %w", err)
		}
		if err := s.wtgRepo.WithTx(tx).DeleteByPostID(postID); err != nil {
			return fmt.Errorf("failed to cascade want-to-go: %w", err)
		}
		if err := s.tagRepo.WithTx(tx).DeleteUnreferenced(tagIDs); err != nil {
			return fmt.Errorf("failed to collect orphan tags: %w", err)
		}
		if err := s.postRepo.WithTx(tx).Delete(postID); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// Notifications are periphery, not part of the referential core; removing
	// them after commit keeps the transaction small, and a failure here only
	// leaves stale inbox entries.
	if err := s.notifRepo.DeleteByTargetID(postID); err != nil {
		log.Printf("Warning: failed to delete notifications for post %s: %v", postID, err)
	}

	return postID, nil
}

// AddTags tags a post; only the owner may change tags
func (s *postService) AddTags(userID, postID string, names []string) (*PostView, error) {
	if _, err := s.ownedPost(userID, postID); err != nil {
		return nil, err
	}
	if err := s.tagService.AddTags(postID, names); err != nil {
		return nil, err
	}
	return s.viewService.GetPost(postID, userID)
}

// RemoveTag untags a post; only the owner may change tags
func (s *postService) RemoveTag(userID, postID, name string) (*PostView, error) {
	if _, err := s.ownedPost(userID, postID); err != nil {
		return nil, err
	}
	if err := s.tagService.RemoveTag(postID, name); err != nil {
		return nil, err
	}
	return s.viewService.GetPost(postID, userID)
}

// ListRatings returns the seeded rating reference set, for clients building
// the create/edit form
func (s *postService) ListRatings() ([]model.Rating, error) {
	return s.ratingRepo.FindAll()
}

// ownedPost resolves a post and enforces ownership
func (s *postService) ownedPost(userID, postID string) (*model.Post, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid post id", model.ErrInvalidID, postID)
	}
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: not the post owner", model.ErrUnauthorized)
	}
	return post, nil
}
