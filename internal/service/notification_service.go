package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"platefeed/internal/model"
	"platefeed/internal/repository"
	"platefeed/internal/util"
)

type NotificationService interface {
	SendInteractionNotification(receiverID, senderID, postID, notifType, message string)
	GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	SetWSHub(hub interface {
		BroadcastToUser(string, map[string]interface{})
	})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	rabbitMQ  *util.RabbitMQClient
	wsHub     interface {
		BroadcastToUser(string, map[string]interface{})
	}
}

// NotificationMessage is the RabbitMQ payload
type NotificationMessage struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	NotificationQueueName  = "notification_queue"
	NotificationExchange   = "notification_exchange"
	NotificationRoutingKey = "notification"
)

func NewNotificationService(notifRepo repository.NotificationRepository, rabbitMQ *util.RabbitMQClient) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		rabbitMQ:  rabbitMQ,
		wsHub:     nil, // Set via SetWSHub once the hub is running
	}
}

// SetWSHub sets the WebSocket hub for realtime pushes
func (s *notificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
	s.wsHub = hub
}

// SendInteractionNotification persists an interaction notification and
// hands it to RabbitMQ for async delivery. Best-effort throughout: the
// triggering interaction already committed.
func (s *notificationService) SendInteractionNotification(receiverID, senderID, postID, notifType, message string) {
	notification := &model.Notification{
		UserID:   receiverID,
		SenderID: &senderID,
		Type:     notifType,
		Title:    titleFor(notifType),
		Message:  message,
		TargetID: &postID,
	}
	if err := s.notifRepo.Create(notification); err != nil {
		log.Printf("Failed to store notification: %v", err)
		return
	}

	if s.rabbitMQ != nil {
		msg := NotificationMessage{
			UserID:  receiverID,
			Type:    notifType,
			Message: message,
			Data: map[string]interface{}{
				"sender_id": senderID,
				"post_id":   postID,
			},
			Timestamp: time.Now(),
		}
		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
			return
		}
		if err := s.rabbitMQ.Publish(NotificationExchange, NotificationRoutingKey, msgJSON); err != nil {
			log.Printf("Failed to publish notification: %v", err)
		}
		return
	}

	// No broker: push directly to the hub when one is attached
	if s.wsHub != nil {
		s.wsHub.BroadcastToUser(receiverID, map[string]interface{}{
			"type":    notifType,
			"message": message,
			"post_id": postID,
		})
	}
}

// GetNotificationsByUserID lists a user's notifications, newest first
func (s *notificationService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	notifications, err := s.notifRepo.FindByUserID(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.CountUnread(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	return s.notifRepo.MarkAsRead(notificationID, userID)
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

func titleFor(notifType string) string {
	switch notifType {
	case model.NotificationTypeLike:
		return "New like"
	case model.NotificationTypeWantToGo:
		return "Someone wants to go"
	default:
		return "Notification"
	}
}
