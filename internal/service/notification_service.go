package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
)

// NotificationService persists in-app notifications and pushes them to
// connected websocket clients. It backs the workflow's best-effort delivery:
// every method swallows and logs its own failures so callers never observe a
// delivery error.
type NotificationService interface {
	WorkflowNotifier

	ListForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo  repository.NotificationRepository
	users repository.UserRepository
	hub   *websocket.Hub
}

// NewNotificationService returns a new instance of NotificationService. The
// hub may be nil in contexts without websocket delivery (batch jobs, tests).
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, hub *websocket.Hub) NotificationService {
	return &notificationService{repo: repo, users: users, hub: hub}
}

func (s *notificationService) NotifyUser(ctx context.Context, recipientID uuid.UUID, notifType, title, message string, entityID *uuid.UUID) {
	n := &model.Notification{
		RecipientID:      recipientID,
		NotificationType: notifType,
		Title:            title,
		Message:          message,
		EntityID:         entityID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("notification: failed to persist %s for user %s: %v", notifType, recipientID, err)
		return
	}
	s.push(recipientID, n)
}

func (s *notificationService) NotifyHROfficers(ctx context.Context, notifType, title, message string, entityID *uuid.UUID) {
	officers, err := s.users.ListActiveOfficers(ctx)
	if err != nil {
		log.Printf("notification: failed to resolve HR officers: %v", err)
		return
	}
	for _, officer := range officers {
		s.NotifyUser(ctx, officer.UserID, notifType, title, message, entityID)
	}
}

func (s *notificationService) push(recipientID uuid.UUID, n *model.Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("notification: failed to marshal payload: %v", err)
		return
	}
	s.hub.SendToUser(recipientID, payload)
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user id")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListForUser(ctx, uid, unreadOnly, page, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	nid, err := uuid.Parse(notificationID)
	if err != nil {
		return errors.New("invalid notification id")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return errors.New("invalid user id")
	}
	if err := s.repo.MarkRead(ctx, nid, uid); err != nil {
		return errors.New("notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return errors.New("invalid user id")
	}
	return s.repo.MarkAllRead(ctx, uid)
}
