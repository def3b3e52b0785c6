package service

import (
	"errors"
	"fmt"

	"platefeed/internal/model"
	"platefeed/internal/repository"

	"github.com/google/uuid"
)

// InteractionService owns the toggle-style interactions. Toggles are not
// transactional: the unique pair index is the only isolation, and the
// duplicate-key compensation below is what resolves the check-then-insert
// race between two concurrent toggles of the same pair.
type InteractionService interface {
	ToggleLike(userID, postID string) (string, error)
	ToggleWantToGo(userID, postID string) (string, error)
	IncrementShare(postID string) (string, error)
	GetLikeCount(postID string) (int64, error)
	GetWantToGoCount(postID string) (int64, error)
}

type interactionService struct {
	likeRepo repository.LikeRepository
	wtgRepo  repository.WantToGoRepository
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	notifier NotificationService // optional, nil when messaging infra is absent
}

func NewInteractionService(
	likeRepo repository.LikeRepository,
	wtgRepo repository.WantToGoRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
) InteractionService {
	return &interactionService{
		likeRepo: likeRepo,
		wtgRepo:  wtgRepo,
		postRepo: postRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// ToggleLike joins the pair when absent and leaves it when present,
// returning the post id so the caller can re-materialize the view
func (s *interactionService) ToggleLike(userID, postID string) (string, error) {
	post, err := s.checkPair(userID, postID)
	if err != nil {
		return "", err
	}

	if _, err := s.likeRepo.FindByUserAndPost(userID, postID); err == nil {
		if err := s.likeRepo.DeleteByUserAndPost(userID, postID); err != nil {
			return "", fmt.Errorf("failed to unlike post: %w", err)
		}
		return postID, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return "", err
	}

	joined, err := s.insertLike(userID, postID)
	if err != nil {
		return "", err
	}
	if joined {
		s.notifyOwner(post, userID, model.NotificationTypeLike, "liked your post")
	}
	return postID, nil
}

// insertLike inserts the association, compensating a duplicate-pair loss:
// delete every row for the pair and retry the insert exactly once. The pair
// deterministically ends up joined; with concurrent callers that is not
// classic toggle semantics, and deliberately so.
func (s *interactionService) insertLike(userID, postID string) (bool, error) {
	err := s.likeRepo.Create(&model.Like{UserID: userID, PostID: postID})
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, model.ErrDuplicateAssociation) {
		return false, fmt.Errorf("failed to like post: %w", err)
	}

	if err := s.likeRepo.DeleteByUserAndPost(userID, postID); err != nil {
		return false, fmt.Errorf("failed to recover like state: %w", err)
	}
	if err := s.likeRepo.Create(&model.Like{UserID: userID, PostID: postID}); err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	return true, nil
}

// ToggleWantToGo is ToggleLike for the want-to-go association
func (s *interactionService) ToggleWantToGo(userID, postID string) (string, error) {
	post, err := s.checkPair(userID, postID)
	if err != nil {
		return "", err
	}

	if _, err := s.wtgRepo.FindByUserAndPost(userID, postID); err == nil {
		if err := s.wtgRepo.DeleteByUserAndPost(userID, postID); err != nil {
			return "", fmt.Errorf("failed to leave want-to-go: %w", err)
		}
		return postID, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return "", err
	}

	joined, err := s.insertWantToGo(userID, postID)
	if err != nil {
		return "", err
	}
	if joined {
		s.notifyOwner(post, userID, model.NotificationTypeWantToGo, "wants to go to the place you reviewed")
	}
	return postID, nil
}

func (s *interactionService) insertWantToGo(userID, postID string) (bool, error) {
	err := s.wtgRepo.Create(&model.WantToGo{UserID: userID, PostID: postID})
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, model.ErrDuplicateAssociation) {
		return false, fmt.Errorf("failed to join want-to-go: %w", err)
	}

	if err := s.wtgRepo.DeleteByUserAndPost(userID, postID); err != nil {
		return false, fmt.Errorf("failed to recover want-to-go state: %w", err)
	}
	if err := s.wtgRepo.Create(&model.WantToGo{UserID: userID, PostID: postID}); err != nil {
		return false, fmt.Errorf("failed to join want-to-go: %w", err)
	}
	return true, nil
}

// IncrementShare bumps the share counter. Not a toggle: repeated shares by
// the same viewer all count.
func (s *interactionService) IncrementShare(postID string) (string, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return "", fmt.Errorf("%w: %q is not a valid post id", model.ErrInvalidID, postID)
	}
	if err := s.postRepo.IncrementShare(postID); err != nil {
		return "", err
	}
	return postID, nil
}

func (s *interactionService) GetLikeCount(postID string) (int64, error) {
	counts, err := s.likeRepo.CountByPostIDs([]string{postID})
	if err != nil {
		return 0, err
	}
	return counts[postID], nil
}

func (s *interactionService) GetWantToGoCount(postID string) (int64, error) {
	counts, err := s.wtgRepo.CountByPostIDs([]string{postID})
	if err != nil {
		return 0, err
	}
	return counts[postID], nil
}

// checkPair validates both ids and resolves the post
func (s *interactionService) checkPair(userID, postID string) (*model.Post, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid user id", model.ErrInvalidID, userID)
	}
	if _, err := uuid.Parse(postID); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid post id", model.ErrInvalidID, postID)
	}
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// notifyOwner sends an interaction notification to the post owner.
// Best-effort: a notification failure never fails the toggle.
func (s *interactionService) notifyOwner(post *model.Post, senderID, notifType, action string) {
	if s.notifier == nil || post.UserID == senderID {
		return
	}

	senderName := "Someone"
	if sender, err := s.userRepo.FindByID(senderID); err == nil {
		senderName = sender.DisplayName
	}

	s.notifier.SendInteractionNotification(post.UserID, senderID, post.ID, notifType,
		fmt.Sprintf("%s %s", senderName, action))
}
